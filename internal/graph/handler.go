package graph

import (
	"fmt"
	"io"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/sirupsen/logrus"

	"countrygraph/internal/metrics"
)

const defaultQueryCacheSize = 1000

type HandlerOptions struct {
	// Introspection enables __schema and __type; the playground needs it.
	Introspection bool
	// ComplexityLimit rejects operations above this cost. Zero disables it.
	ComplexityLimit int
	QueryCacheSize  int
	Metrics         *metrics.Metrics
	Log             logrus.FieldLogger
}

// NewHandler builds the GraphQL HTTP handler over resolvers. It accepts GET and
// POST, caches parsed queries and supports automatic persisted queries.
func NewHandler(resolvers ResolverRoot, opts HandlerOptions) (*handler.Server, error) {
	if resolvers == nil {
		return nil, fmt.Errorf("graph: resolvers are required")
	}
	if opts.Log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		opts.Log = discard
	}
	if opts.QueryCacheSize <= 0 {
		opts.QueryCacheSize = defaultQueryCacheSize
	}

	queryCache, err := newLRUCache(opts.QueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("graph: query cache: %w", err)
	}
	persisted, err := newLRUCache(opts.QueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("graph: persisted query cache: %w", err)
	}

	srv := handler.New(NewExecutableSchema(Config{Resolvers: resolvers}))
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(queryCache)
	srv.SetErrorPresenter(ErrorPresenter(opts.Log))
	srv.SetRecoverFunc(RecoverFunc(opts.Log))

	if opts.Introspection {
		srv.Use(extension.Introspection{})
	}
	srv.Use(extension.AutomaticPersistedQuery{Cache: persisted})
	if opts.ComplexityLimit > 0 {
		srv.Use(extension.FixedComplexityLimit(opts.ComplexityLimit))
	}
	srv.Use(Tracer{Metrics: opts.Metrics, Log: opts.Log})
	return srv, nil
}
