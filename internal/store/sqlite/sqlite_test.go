package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countrygraph/internal/model"
	"countrygraph/internal/store"
)

var _ store.Store = (*Store)(nil)

func strPtr(s string) *string { return &s }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "countrygraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestUpsertAndList(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ingested := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	err := st.UpsertObservations(ctx, []model.Observation{
		{Provider: "worldbank", CountryISO2: "us", Indicator: "NY.GDP.MKTP.CD", Date: "2021", Value: strPtr("100"), IngestedAt: ingested},
		{Provider: "worldbank", CountryISO2: "US", Indicator: "NY.GDP.MKTP.CD", Date: "2020", Value: strPtr("90"), IngestedAt: ingested},
		{Provider: "worldbank", CountryISO2: "US", Indicator: "SI.POV.GINI", Date: "2021", Value: nil, IngestedAt: ingested},
		{Provider: "other", CountryISO2: "US", Indicator: "NY.GDP.MKTP.CD", Date: "2021", Value: strPtr("1")},
	})
	require.NoError(t, err)

	observations, err := st.ListObservations(ctx, "worldbank")
	require.NoError(t, err)
	require.Len(t, observations, 3)

	assert.Equal(t, "US", observations[0].CountryISO2)
	assert.Equal(t, "NY.GDP.MKTP.CD", observations[0].Indicator)
	assert.Equal(t, "2020", observations[0].Date)
	assert.Equal(t, "90", *observations[0].Value)
	assert.Equal(t, "worldbank", observations[0].Provider)
	assert.True(t, ingested.Equal(observations[0].IngestedAt))

	assert.Equal(t, "2021", observations[1].Date)
	assert.Equal(t, "SI.POV.GINI", observations[2].Indicator)
	assert.Nil(t, observations[2].Value)
}

func TestUpsertReplacesValue(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertObservations(ctx, []model.Observation{
		{Provider: "worldbank", CountryISO2: "DE", Indicator: "SP.POP.TOTL", Date: "2022", Value: nil},
	}))
	require.NoError(t, st.UpsertObservations(ctx, []model.Observation{
		{Provider: "worldbank", CountryISO2: "DE", Indicator: "SP.POP.TOTL", Date: "2022", Value: strPtr("83797985")},
	}))

	observations, err := st.ListObservations(ctx, "worldbank")
	require.NoError(t, err)
	require.Len(t, observations, 1)
	require.NotNil(t, observations[0].Value)
	assert.Equal(t, "83797985", *observations[0].Value)
	assert.False(t, observations[0].IngestedAt.IsZero())
}

func TestUpsertRejectsNonYearDateAtomically(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	err := st.UpsertObservations(ctx, []model.Observation{
		{Provider: "worldbank", CountryISO2: "DE", Indicator: "SP.POP.TOTL", Date: "2022", Value: strPtr("1")},
		{Provider: "worldbank", CountryISO2: "DE", Indicator: "SP.POP.TOTL", Date: "2022Q1", Value: strPtr("2")},
	})
	require.Error(t, err)

	observations, err := st.ListObservations(ctx, "worldbank")
	require.NoError(t, err)
	assert.Empty(t, observations)
}

func TestLatestObservationYear(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, ok, err := st.LatestObservationYear(ctx, "worldbank", "US")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.UpsertObservations(ctx, []model.Observation{
		{Provider: "worldbank", CountryISO2: "US", Indicator: "SP.POP.TOTL", Date: "2019", Value: strPtr("1")},
		{Provider: "worldbank", CountryISO2: "US", Indicator: "NY.GDP.MKTP.CD", Date: "2022", Value: nil},
		{Provider: "worldbank", CountryISO2: "DE", Indicator: "SP.POP.TOTL", Date: "2023", Value: strPtr("1")},
	}))

	year, ok, err := st.LatestObservationYear(ctx, "worldbank", "us")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2022, year)
}

func TestEmptyUpsertIsNoop(t *testing.T) {
	st := openTestStore(t)
	assert.NoError(t, st.UpsertObservations(context.Background(), nil))
}
