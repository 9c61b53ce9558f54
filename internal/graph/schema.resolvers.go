package graph

import (
	"context"

	"github.com/sirupsen/logrus"

	"countrygraph/internal/model"
)

// Query returns the QueryResolver implementation.
func (r *Resolver) Query() QueryResolver { return &queryResolver{r} }

// Country returns the CountryResolver implementation.
func (r *Resolver) Country() CountryResolver { return &countryResolver{r} }

// TimeSeries returns the TimeSeriesResolver implementation.
func (r *Resolver) TimeSeries() TimeSeriesResolver { return &timeSeriesResolver{r} }

type queryResolver struct{ *Resolver }

// Country resolves the country record, then fetches the latest values of the
// indicators selected on it.
func (r *queryResolver) Country(ctx context.Context, code string) (*model.Country, error) {
	fields := r.registry.RequestedFields(selectedFields(ctx, countryImplementors))

	country, err := r.provider.LookupCountry(ctx, code)
	if err != nil {
		return nil, err
	}
	latest, err := r.provider.FetchLatest(ctx, fields, country)
	if err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"code":       code,
		"iso2":       latest.ISO2Code,
		"indicators": len(fields),
	}).Debug("country resolved")
	return &latest, nil
}

type countryResolver struct{ *Resolver }

func (r *countryResolver) Iso2(ctx context.Context, obj *model.Country) (*string, error) {
	iso2 := obj.ISO2Code
	return &iso2, nil
}

// Time fetches the indicators selected on each entry for the requested range.
// Years without observations come back as nil entries.
func (r *countryResolver) Time(ctx context.Context, obj *model.Country, from int, to int) ([]*model.TimeSeries, error) {
	fields := r.registry.RequestedFields(selectedFields(ctx, timeSeriesImplementors))
	series, err := r.provider.FetchSeries(ctx, fields, obj.ISO2Code, from, to)
	if err != nil {
		return nil, err
	}
	return series.List(), nil
}

func (r *countryResolver) Indicator(ctx context.Context, obj *model.Country, name string) (*string, error) {
	return r.indicatorValue(obj.Values, name), nil
}

type timeSeriesResolver struct{ *Resolver }

func (r *timeSeriesResolver) Indicator(ctx context.Context, obj *model.TimeSeries, name string) (*string, error) {
	return r.indicatorValue(obj.Values, name), nil
}

// indicatorValue maps a field name back to its provider code and reads it from
// values. Unknown names and missing codes are both null.
func (r *Resolver) indicatorValue(values model.Values, name string) *string {
	code, ok := r.registry.Lookup(name)
	if !ok {
		return nil
	}
	return values[code]
}
