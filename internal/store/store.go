package store

import (
	"context"

	"countrygraph/internal/model"
)

type Store interface {
	UpsertObservations(ctx context.Context, observations []model.Observation) error
	// LatestObservationYear reports the newest stored year for a country, and
	// false when nothing is stored yet.
	LatestObservationYear(ctx context.Context, provider, countryISO2 string) (int, bool, error)
	ListObservations(ctx context.Context, provider string) ([]model.Observation, error)
	Close() error
}

type NopStore struct{}

func (s *NopStore) UpsertObservations(ctx context.Context, observations []model.Observation) error {
	return nil
}

func (s *NopStore) LatestObservationYear(ctx context.Context, provider, countryISO2 string) (int, bool, error) {
	return 0, false, nil
}

func (s *NopStore) ListObservations(ctx context.Context, provider string) ([]model.Observation, error) {
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
