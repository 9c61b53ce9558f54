package providers

import (
	"context"

	"countrygraph/internal/model"
)

// Provider resolves countries and their indicator values. Field lists are short
// indicator names; unknown names are ignored.
type Provider interface {
	Name() string
	LookupCountry(ctx context.Context, code string) (model.Country, error)
	FetchLatest(ctx context.Context, fields []string, seed model.Country) (model.Country, error)
	FetchSeries(ctx context.Context, fields []string, iso2 string, from, to int) (model.Series, error)
}
