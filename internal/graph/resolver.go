// Package graph serves the country GraphQL schema on top of an indicator
// provider.
package graph

import (
	"context"
	"io"

	"github.com/99designs/gqlgen/graphql"
	"github.com/sirupsen/logrus"

	"countrygraph/internal/indicators"
	"countrygraph/internal/providers"
)

// Resolver is the root resolver. It holds no per-request state.
type Resolver struct {
	provider providers.Provider
	registry *indicators.Registry
	log      logrus.FieldLogger
}

// NewResolver creates a resolver over provider. A nil registry falls back to
// indicators.Default and a nil logger discards output.
func NewResolver(provider providers.Provider, registry *indicators.Registry, log logrus.FieldLogger) *Resolver {
	if registry == nil {
		registry = indicators.Default
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Resolver{
		provider: provider,
		registry: registry,
		log:      log,
	}
}

// selectedFields lists the field names selected under the field currently
// being resolved, with fragments expanded.
func selectedFields(ctx context.Context, implementors []string) []string {
	collected := graphql.CollectFieldsCtx(ctx, implementors)
	names := make([]string, 0, len(collected))
	for _, field := range collected {
		names = append(names, field.Name)
	}
	return names
}
