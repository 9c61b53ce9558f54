package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"countrygraph/internal/config"
	"countrygraph/internal/indicators"
	"countrygraph/internal/model"
	"countrygraph/internal/store/sqlite"
)

type metaFile struct {
	GeneratedAt  string `json:"generated_at"`
	Provider     string `json:"provider"`
	Countries    int    `json:"countries"`
	Observations int    `json:"observations"`
}

type latestFile struct {
	GeneratedAt string        `json:"generated_at"`
	Rows        []latestEntry `json:"rows"`
}

type latestEntry struct {
	ISO2       string                     `json:"iso2"`
	Indicators map[string]indicatorLatest `json:"indicators"`
}

type indicatorLatest struct {
	Year  int    `json:"year"`
	Value string `json:"value"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		build(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func build(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config (empty = defaults + env)")
	outDir := fs.String("out", "site/data", "output directory")
	dbPath := fs.String("db", "", "sqlite database path (overrides store.path)")
	provider := fs.String("provider", "worldbank", "provider id")
	countriesCSV := fs.String("countries", "", "comma-separated ISO2 filter (empty = all)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*dbPath) != "" {
		cfg.Store.Path = *dbPath
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create output dir:", err)
		os.Exit(1)
	}

	observations, err := loadObservations(cfg.Store.Path, *provider)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load observations:", err)
		os.Exit(1)
	}
	observations = filterCountries(observations, parseList(*countriesCSV))

	now := time.Now().UTC().Format(time.RFC3339)
	latest := buildLatest(observations, indicators.Default)
	meta := metaFile{
		GeneratedAt:  now,
		Provider:     *provider,
		Countries:    len(latest),
		Observations: len(observations),
	}
	if err := writeJSON(filepath.Join(*outDir, "meta.json"), meta); err != nil {
		fmt.Fprintln(os.Stderr, "failed to write meta.json:", err)
		os.Exit(1)
	}
	if err := writeJSON(filepath.Join(*outDir, "latest.json"), latestFile{GeneratedAt: now, Rows: latest}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to write latest.json:", err)
		os.Exit(1)
	}

	fmt.Printf("publisher build complete (out=%s countries=%d observations=%s)\n",
		*outDir, len(latest), humanize.Comma(int64(len(observations))),
	)
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: publisher build [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -config     path to YAML config (default: defaults + env)")
	fmt.Fprintln(os.Stderr, "  -out        output directory (default: site/data)")
	fmt.Fprintln(os.Stderr, "  -db         sqlite database path (default: store.path)")
	fmt.Fprintln(os.Stderr, "  -provider   provider id (default: worldbank)")
	fmt.Fprintln(os.Stderr, "  -countries  comma-separated ISO2 filter (default: all)")
}

func loadObservations(dbPath, provider string) ([]model.Observation, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("db path is required")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	st, err := sqlite.New(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return st.ListObservations(context.Background(), provider)
}

func filterCountries(observations []model.Observation, countries []string) []model.Observation {
	if len(countries) == 0 {
		return observations
	}
	allowed := make(map[string]struct{}, len(countries))
	for _, code := range countries {
		allowed[code] = struct{}{}
	}
	filtered := make([]model.Observation, 0, len(observations))
	for _, observation := range observations {
		if _, ok := allowed[strings.ToUpper(observation.CountryISO2)]; ok {
			filtered = append(filtered, observation)
		}
	}
	return filtered
}

// buildLatest keeps, per country and indicator, the newest year with a
// non-null value. Indicators are keyed by their short name; codes missing from
// the registry are dropped.
func buildLatest(observations []model.Observation, registry *indicators.Registry) []latestEntry {
	latest := make(map[string]map[string]indicatorLatest)

	for _, observation := range observations {
		if observation.Value == nil {
			continue
		}
		name, ok := registry.ShortName(observation.Indicator)
		if !ok {
			continue
		}
		year, ok := parseYear(observation.Date)
		if !ok {
			continue
		}
		country := strings.ToUpper(observation.CountryISO2)
		if country == "" {
			continue
		}

		if _, ok := latest[country]; !ok {
			latest[country] = make(map[string]indicatorLatest)
		}
		current, exists := latest[country][name]
		if !exists || year > current.Year {
			latest[country][name] = indicatorLatest{Year: year, Value: *observation.Value}
		}
	}

	results := make([]latestEntry, 0, len(latest))
	for country, values := range latest {
		results = append(results, latestEntry{ISO2: country, Indicators: values})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ISO2 < results[j].ISO2
	})
	return results
}

func parseYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if len(value) != 4 || !isDigits(value) {
		return 0, false
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return year, true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseList(value string) []string {
	raw := strings.Split(value, ",")
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		items = append(items, strings.ToUpper(trimmed))
	}
	return items
}
