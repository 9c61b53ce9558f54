package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"countrygraph/internal/model"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertObservations writes all observations in one transaction. Rows are keyed
// by provider, country, indicator and year; a later write replaces the value.
func (s *Store) UpsertObservations(ctx context.Context, observations []model.Observation) (err error) {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO indicator_observations (
			provider, country_iso2, indicator, year, date, value, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, country_iso2, indicator, year)
		DO UPDATE SET
			date = excluded.date,
			value = excluded.value,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range observations {
		observation := observations[i]
		year, convErr := strconv.Atoi(strings.TrimSpace(observation.Date))
		if convErr != nil {
			err = fmt.Errorf("sqlite: observation %s/%s has non-year date %q", observation.CountryISO2, observation.Indicator, observation.Date)
			return err
		}
		if observation.IngestedAt.IsZero() {
			observation.IngestedAt = now
		}
		var value any
		if observation.Value != nil {
			value = *observation.Value
		}
		_, err = stmt.ExecContext(
			ctx,
			observation.Provider,
			strings.ToUpper(observation.CountryISO2),
			observation.Indicator,
			year,
			observation.Date,
			value,
			observation.IngestedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) LatestObservationYear(ctx context.Context, provider, countryISO2 string) (int, bool, error) {
	var year sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(year) FROM indicator_observations
		WHERE provider = ? AND country_iso2 = ?
	`, provider, strings.ToUpper(countryISO2)).Scan(&year)
	if err != nil {
		return 0, false, err
	}
	if !year.Valid {
		return 0, false, nil
	}
	return int(year.Int64), true, nil
}

// ListObservations returns every stored observation of provider ordered by
// country, indicator and year.
func (s *Store) ListObservations(ctx context.Context, provider string) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT country_iso2, indicator, date, value, ingested_at
		FROM indicator_observations
		WHERE provider = ?
		ORDER BY country_iso2, indicator, year
	`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := make([]model.Observation, 0)
	for rows.Next() {
		var (
			observation model.Observation
			value       sql.NullString
			ingestedAt  string
		)
		if err := rows.Scan(&observation.CountryISO2, &observation.Indicator, &observation.Date, &value, &ingestedAt); err != nil {
			return nil, err
		}
		observation.Provider = provider
		if value.Valid {
			v := value.String
			observation.Value = &v
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ingestedAt); err == nil {
			observation.IngestedAt = parsed
		}
		observations = append(observations, observation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return observations, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS indicator_observations (
			provider TEXT NOT NULL,
			country_iso2 TEXT NOT NULL,
			indicator TEXT NOT NULL,
			year INTEGER NOT NULL,
			date TEXT NOT NULL,
			value TEXT,
			ingested_at TEXT NOT NULL,
			PRIMARY KEY (provider, country_iso2, indicator, year)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_indicator_observations_country
			ON indicator_observations (provider, country_iso2, year);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
