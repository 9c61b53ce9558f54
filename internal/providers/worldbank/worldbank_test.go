package worldbank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrygraph/internal/indicators"
	"countrygraph/internal/metrics"
	"countrygraph/internal/model"
)

const countryUSPayload = `[
	{"page":1,"pages":1,"per_page":"50","total":1},
	[{"id":"USA","iso2Code":"US","name":"United States",
	  "region":{"id":"NAC","iso2code":"XU","value":"North America"},
	  "capitalCity":"Washington D.C.","longitude":"-77.032","latitude":"38.8895"}]
]`

type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	requests []*url.URL
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t, handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		copied := *r.URL
		api.requests = append(api.requests, &copied)
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		api.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) Requests() []*url.URL {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*url.URL, len(a.requests))
	copy(out, a.requests)
	return out
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
}

func newTestProvider(t *testing.T, baseURL string, opts ...Option) *Provider {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock(2024))}, opts...)
	p, err := NewWithConfig(Config{BaseURL: baseURL + "/v2"}, indicators.Default, opts...)
	require.NoError(t, err)
	return p
}

func TestNewWithConfigValidation(t *testing.T) {
	_, err := NewWithConfig(Config{}, indicators.Default)
	assert.Error(t, err)

	_, err = NewWithConfig(Config{BaseURL: DefaultBaseURL}, nil)
	assert.Error(t, err)

	p, err := NewWithConfig(Config{BaseURL: DefaultBaseURL}, indicators.Default)
	require.NoError(t, err)
	assert.Equal(t, "worldbank", p.Name())
	assert.Equal(t, defaultPerPage, p.config.PerPage)
	assert.Equal(t, defaultSource, p.config.Source)
}

func TestLookupCountry(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(countryUSPayload))
	})
	p := newTestProvider(t, srv.URL)

	country, err := p.LookupCountry(context.Background(), "usa")
	require.NoError(t, err)
	assert.Equal(t, "US", country.ISO2Code)
	assert.Equal(t, "USA", country.ID)
	assert.Equal(t, "United States", country.Name)
	assert.Equal(t, "Washington D.C.", country.CapitalCity)
	assert.Equal(t, "-77.032", country.Longitude)
	assert.Equal(t, "38.8895", country.Latitude)
	assert.Equal(t, "North America", country.Region)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v2/country/usa", requests[0].Path)
	assert.Equal(t, "json", requests[0].Query().Get("format"))
}

func TestLookupCountryNotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid value message",
			body: `[{"message":[{"id":"120","key":"Invalid value","value":"The provided parameter value is not valid"}]}]`,
		},
		{name: "null records", body: `[{"page":0,"pages":0,"total":0},null]`},
		{name: "empty records", body: `[{"page":1,"pages":1,"total":0},[]]`},
		{name: "missing records", body: `[{"page":1,"pages":1,"total":0}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			p := newTestProvider(t, srv.URL)

			_, err := p.LookupCountry(context.Background(), "XX")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCountryNotFound), err.Error())
		})
	}
}

func TestLookupCountryEmptyCode(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(countryUSPayload))
	})
	p := newTestProvider(t, srv.URL)

	_, err := p.LookupCountry(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrCountryNotFound)
	assert.Empty(t, api.Requests())
}

func TestFetchLatest(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"page":1,"pages":1,"per_page":10000,"total":2},
			[
				{"indicator":{"id":"SP.POP.TOTL","value":"Population, total"},"country":{"id":"US","value":"United States"},"date":"2023","value":334914895},
				{"indicator":{"id":"NY.GDP.MKTP.CD","value":"GDP (current US$)"},"country":{"id":"US","value":"United States"},"date":"2023","value":null}
			]
		]`))
	})
	reg := metrics.New(nil)
	p := newTestProvider(t, srv.URL, WithMetrics(reg))

	seed := model.Country{ISO2Code: "US", Name: "United States", Values: model.Values{}}
	country, err := p.FetchLatest(context.Background(), []string{"GDP", "name", "population"}, seed)
	require.NoError(t, err)

	assert.Equal(t, "United States", country.Name)
	require.NotNil(t, country.Values["SP.POP.TOTL"])
	assert.Equal(t, "334914895", *country.Values["SP.POP.TOTL"])
	gdp, present := country.Values["NY.GDP.MKTP.CD"]
	assert.True(t, present)
	assert.Nil(t, gdp)
	assert.Empty(t, seed.Values, "seed must not be mutated")

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v2/country/US/indicator/SP.POP.TOTL;NY.GDP.MKTP.CD", requests[0].Path)
	query := requests[0].Query()
	assert.Equal(t, "2023", query.Get("date"))
	assert.Equal(t, "2", query.Get("source"))
	assert.Equal(t, "10000", query.Get("per_page"))
	assert.Equal(t, "json", query.Get("format"))

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.UpstreamRequests.WithLabelValues("worldbank", "indicator", "200")))
}

func TestFetchLatestWithoutIndicatorsSkipsRequest(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL)
	})
	p := newTestProvider(t, srv.URL)

	seed := model.Country{ISO2Code: "US", Name: "United States"}
	country, err := p.FetchLatest(context.Background(), []string{"name", "capitalCity"}, seed)
	require.NoError(t, err)
	assert.Equal(t, "United States", country.Name)
	assert.Empty(t, country.Values)
	assert.Empty(t, api.Requests())
}

func TestFetchLatestNoData(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"page":0,"pages":0,"per_page":10000,"total":0},null]`))
	})
	p := newTestProvider(t, srv.URL)

	country, err := p.FetchLatest(context.Background(), []string{"GINI"}, model.Country{ISO2Code: "US"})
	require.NoError(t, err)
	assert.Empty(t, country.Values)
}

func TestFetchSeries(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"page":1,"pages":1,"per_page":10000,"total":3},
			[
				{"indicator":{"id":"NY.GDP.MKTP.CD"},"country":{"id":"DE"},"date":"2017","value":3690849152517.65},
				{"indicator":{"id":"NY.GDP.MKTP.CD"},"country":{"id":"DE"},"date":"2015","value":3357585719351.56},
				{"indicator":{"id":"SP.DYN.LE00.IN"},"country":{"id":"DE"},"date":"2015","value":80.6414634146342}
			]
		]`))
	})
	p := newTestProvider(t, srv.URL, WithClock(fixedClock(2026)))

	series, err := p.FetchSeries(context.Background(), []string{"lifeExpectancy", "GDP", "date"}, "DE", 2014, 2018)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, 4, series.Len())
	require.NotNil(t, series[1])
	assert.Equal(t, "2015", series[1].Date)
	assert.Equal(t, "3357585719351.56", *series[1].Values["NY.GDP.MKTP.CD"])
	assert.Equal(t, "80.6414634146342", *series[1].Values["SP.DYN.LE00.IN"])
	require.NotNil(t, series[3])
	assert.Equal(t, "2017", series[3].Date)
	_, ok := series[0]
	assert.False(t, ok)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v2/country/DE/indicator/NY.GDP.MKTP.CD;SP.DYN.LE00.IN", requests[0].Path)
	assert.Equal(t, "2014:2018", requests[0].Query().Get("date"))
}

func TestFetchSeriesNormalizesRange(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"page":0,"pages":0,"total":0},null]`))
	})
	p := newTestProvider(t, srv.URL, WithClock(fixedClock(2026)))

	series, err := p.FetchSeries(context.Background(), []string{"GDP"}, "DE", 2030, 2040)
	require.NoError(t, err)
	assert.Empty(t, series)

	_, err = p.FetchSeries(context.Background(), []string{"GDP"}, "DE", -5, 3)
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "2025:2025", requests[0].Query().Get("date"))
	assert.Equal(t, "0:3", requests[1].Query().Get("date"))
}

func TestFetchSeriesWithoutIndicatorsSkipsRequest(t *testing.T) {
	api, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL)
	})
	p := newTestProvider(t, srv.URL)

	series, err := p.FetchSeries(context.Background(), []string{"date"}, "DE", 2000, 2010)
	require.NoError(t, err)
	assert.Empty(t, series)
	assert.Empty(t, api.Requests())
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "bad gateway",
			status: http.StatusBadGateway,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
				assert.Equal(t, "upstream down", apiErr.Message)
			},
		},
		{
			name:   "message payload",
			status: http.StatusOK,
			body:   `[{"message":[{"id":"175","key":"Invalid format","value":"The indicator was not found."}]}]`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, "Invalid format: The indicator was not found.", apiErr.Message)
			},
		},
		{
			name:   "object instead of array",
			status: http.StatusOK,
			body:   `{"page":1}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnexpectedPayload)
			},
		},
		{
			name:   "missing observation element",
			status: http.StatusOK,
			body:   `[{"page":1}]`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnexpectedPayload)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnexpectedPayload)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			p := newTestProvider(t, srv.URL)

			_, err := p.FetchLatest(context.Background(), []string{"GDP"}, model.Country{ISO2Code: "US"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTransportError(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	base := srv.URL
	srv.Close()

	reg := metrics.New(nil)
	p := newTestProvider(t, base, WithMetrics(reg))
	_, err := p.LookupCountry(context.Background(), "US")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worldbank: country request")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.UpstreamRequests.WithLabelValues("worldbank", "country", "error")))
}

func TestContextCancellation(t *testing.T) {
	_, srv := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	p := newTestProvider(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.LookupCountry(ctx, "US")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
