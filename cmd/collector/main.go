package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"countrygraph/internal/config"
	"countrygraph/internal/indicators"
	"countrygraph/internal/logging"
	"countrygraph/internal/metrics"
	"countrygraph/internal/model"
	"countrygraph/internal/providers"
	"countrygraph/internal/providers/worldbank"
	"countrygraph/internal/store"
	"countrygraph/internal/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		run(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config (empty = defaults + env)")
	countries := fs.String("countries", "", "comma-separated country codes")
	allowlist := fs.String("allowlist", "", "path to allowlist file of country codes")
	fields := fs.String("fields", "", "comma-separated indicator names (empty = all)")
	historyYears := fs.Int("history-years", 10, "number of years before the latest completed year to fetch")
	dbPath := fs.String("db", "", "sqlite database path (overrides store.path)")
	verbose := fs.Bool("verbose", false, "print each observation")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "collector run failed:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*dbPath) != "" {
		cfg.Store.Path = *dbPath
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "collector run failed:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		Countries:    parseList(*countries),
		Fields:       parseFields(*fields),
		HistoryYears: *historyYears,
		Verbose:      *verbose,
	}
	if strings.TrimSpace(*allowlist) != "" {
		allowed, err := loadAllowlist(*allowlist)
		if err != nil {
			log.WithError(err).Fatal("collector run failed")
		}
		opts.Countries = mergeCountries(opts.Countries, allowed)
	}

	if err := runCollector(ctx, cfg, opts, log); err != nil {
		log.WithError(err).Fatal("collector run failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: collector run [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -config         path to YAML config (default: defaults + env)")
	fmt.Fprintln(os.Stderr, "  -countries      comma-separated country codes, e.g. US,DE")
	fmt.Fprintln(os.Stderr, "  -allowlist      path to allowlist file of country codes")
	fmt.Fprintln(os.Stderr, "  -fields         comma-separated indicator names (default: all)")
	fmt.Fprintln(os.Stderr, "  -history-years  years before the latest completed year to fetch (default: 10)")
	fmt.Fprintln(os.Stderr, "  -db             sqlite database path (default: store.path)")
	fmt.Fprintln(os.Stderr, "  -verbose        print each observation")
}

type options struct {
	Countries    []string
	Fields       []string
	HistoryYears int
	Verbose      bool
}

type summary struct {
	Countries    int
	Requests     int
	Success      int
	Failed       int
	Skipped      int
	Observations int
}

func runCollector(ctx context.Context, cfg config.Config, opts options, log *logrus.Logger) error {
	if len(opts.Countries) == 0 {
		return errors.New("no countries provided")
	}

	provider, err := worldbank.NewWithConfig(
		cfg.WorldBankClient(),
		indicators.Default,
		worldbank.WithLogger(log),
		worldbank.WithMetrics(metrics.New(nil)),
	)
	if err != nil {
		return err
	}

	st, err := openStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := collect(ctx, provider, st, opts, log, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("collector stored observations=%s\n", humanize.Comma(int64(result.Observations)))
	fmt.Printf("collector run complete (provider=%s countries=%d requests=%d success=%d failed=%d)\n",
		provider.Name(), result.Countries, result.Requests, result.Success, result.Failed,
	)
	if result.Skipped > 0 {
		fmt.Printf("collector run skipped=%d\n", result.Skipped)
	}
	return nil
}

// collect fetches one range per country, starting after the newest year already
// stored, and upserts everything in one batch.
func collect(ctx context.Context, provider providers.Provider, st store.Store, opts options, log logrus.FieldLogger, now time.Time) (summary, error) {
	result := summary{Countries: len(opts.Countries)}
	fields := indicators.Default.RequestedFields(opts.Fields)
	if len(fields) == 0 {
		return result, errors.New("no known indicator fields provided")
	}

	to := providers.PreviousYear(now)
	observations := make([]model.Observation, 0)

	for _, code := range opts.Countries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		country, err := provider.LookupCountry(ctx, code)
		if err != nil {
			if errors.Is(err, worldbank.ErrCountryNotFound) {
				result.Skipped++
				log.WithField("country", code).Warn("skip unknown country")
				continue
			}
			result.Failed++
			log.WithError(err).WithField("country", code).Error("country lookup failed")
			continue
		}

		from := max(to-opts.HistoryYears, 0)
		latest, ok, err := st.LatestObservationYear(ctx, provider.Name(), country.ISO2Code)
		if err != nil {
			return result, err
		}
		if ok && latest+1 > from {
			from = latest + 1
		}
		if from > to {
			result.Skipped++
			if opts.Verbose {
				log.WithField("country", country.ISO2Code).Info("skip up-to-date country")
			}
			continue
		}

		result.Requests++
		series, err := provider.FetchSeries(ctx, fields, country.ISO2Code, from, to)
		if err != nil {
			result.Failed++
			log.WithError(err).WithFields(logrus.Fields{
				"country": country.ISO2Code,
				"from":    from,
				"to":      to,
			}).Error("series fetch failed")
			continue
		}
		flat := providers.Flatten(provider.Name(), country.ISO2Code, series)
		if len(flat) == 0 {
			result.Skipped++
			if opts.Verbose {
				log.WithField("country", country.ISO2Code).Info("skip empty series")
			}
			continue
		}

		result.Success++
		observations = append(observations, flat...)
		if opts.Verbose {
			for _, observation := range flat {
				value := "null"
				if observation.Value != nil {
					value = *observation.Value
				}
				fmt.Printf("%s %s %s %s\n", observation.CountryISO2, observation.Indicator, observation.Date, value)
			}
		}
	}

	if err := st.UpsertObservations(ctx, observations); err != nil {
		return result, err
	}
	result.Observations = len(observations)
	return result, nil
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

func loadAllowlist(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	allowed := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		for _, token := range splitTokens(line) {
			code := strings.ToUpper(strings.TrimSpace(token))
			if code == "" || code == "ISO2" || code == "ISO3" {
				continue
			}
			allowed = append(allowed, code)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return nil, errors.New("allowlist is empty")
	}
	return allowed, nil
}

func splitTokens(line string) []string {
	replacer := strings.NewReplacer(";", ",", "\t", ",")
	line = replacer.Replace(line)
	parts := strings.Split(line, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// mergeCountries appends extra to base, dropping repeats.
func mergeCountries(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, code := range append(append([]string{}, base...), extra...) {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
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

// parseFields keeps the case of indicator names; an empty list selects every
// registered indicator.
func parseFields(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return indicators.Default.Names()
	}
	return items
}
