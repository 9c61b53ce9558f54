package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrygraph/internal/config"
	"countrygraph/internal/metrics"
)

func testConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	graphqlHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})
	srv := New(testConfig(), graphqlHandler, nil, WithMetrics(m, reg))

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{name: "graphql", path: "/graphql", status: http.StatusOK, contains: `{"data":{}}`},
		{name: "health", path: "/health", status: http.StatusOK, contains: `"status":"ok"`},
		{name: "playground", path: "/", status: http.StatusOK, contains: "<title>countrygraph</title>"},
		{name: "metrics", path: "/metrics", status: http.StatusOK, contains: "countrygraph_http_requests_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
		})
	}

	assert.Equal(t, 4.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "200")))
}

func TestPlaygroundDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Playground = false
	srv := New(cfg, http.NotFoundHandler(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are only routed with a gatherer")
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := New(testConfig(), http.NotFoundHandler(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestPanicIsRecovered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})
	srv := New(testConfig(), panicking, nil, WithMetrics(m, reg))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{}")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, "500")))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := New(testConfig(), http.NotFoundHandler(), nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
