package worldbank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"countrygraph/internal/indicators"
	"countrygraph/internal/metrics"
	"countrygraph/internal/model"
	"countrygraph/internal/providers"
)

const (
	DefaultBaseURL       = "https://api.worldbank.org/v2/"
	defaultCountryPath   = "country/{country}"
	defaultIndicatorPath = "country/{country}/indicator/{indicator}"
	defaultSource        = "2"
	defaultPerPage       = 10000
	defaultFormatParam   = "format"
	defaultFormatValue   = "json"
	defaultUserAgent     = "countrygraph/0.1"
	indicatorSeparator   = ";"

	endpointCountry   = "country"
	endpointIndicator = "indicator"
)

var (
	ErrCountryNotFound   = errors.New("worldbank: country not found")
	ErrUnexpectedPayload = errors.New("worldbank: unexpected response shape")
)

// APIError is a non-2xx response or an error message payload from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("worldbank: request failed: %s", e.Message)
	}
	return fmt.Sprintf("worldbank: request failed (%s): %s", e.Status, e.Message)
}

type Config struct {
	BaseURL       string
	CountryPath   string
	IndicatorPath string
	Source        string
	PerPage       int
	FormatParam   string
	FormatValue   string
	UserAgent     string
	// Timeout of zero leaves the transport defaults in place.
	Timeout time.Duration
}

type Provider struct {
	config   Config
	client   *http.Client
	registry *indicators.Registry
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Provider)

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock overrides the clock used to derive the previous calendar year.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

func NewWithConfig(cfg Config, registry *indicators.Registry, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("worldbank base url is required")
	}
	if registry == nil {
		return nil, errors.New("worldbank indicator registry is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	if strings.TrimSpace(cfg.CountryPath) == "" {
		cfg.CountryPath = defaultCountryPath
	}
	if strings.TrimSpace(cfg.IndicatorPath) == "" {
		cfg.IndicatorPath = defaultIndicatorPath
	}
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.FormatParam == "" {
		cfg.FormatParam = defaultFormatParam
	}
	if cfg.FormatValue == "" {
		cfg.FormatValue = defaultFormatValue
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	p := &Provider{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		registry: registry,
		log:      logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string {
	return "worldbank"
}

func (p *Provider) LookupCountry(ctx context.Context, code string) (model.Country, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Country{}, fmt.Errorf("%w: empty country code", ErrCountryNotFound)
	}
	path := strings.ReplaceAll(p.config.CountryPath, "{country}", url.PathEscape(code))
	body, err := p.doRequest(ctx, endpointCountry, path, nil)
	if err != nil {
		return model.Country{}, err
	}
	country, err := parseCountry(body)
	if err != nil {
		return model.Country{}, err
	}
	return country, nil
}

// FetchLatest merges the values of the requested indicators for the previous
// calendar year into a copy of seed. No request is made when no field is known.
func (p *Provider) FetchLatest(ctx context.Context, fields []string, seed model.Country) (model.Country, error) {
	out := seed
	out.Values = seed.Values.Clone()

	codes := p.registry.Codes(fields)
	if len(codes) == 0 {
		return out, nil
	}

	year := providers.PreviousYear(p.now())
	observations, err := p.fetchObservations(ctx, seed.ISO2Code, codes, strconv.Itoa(year))
	if err != nil {
		return model.Country{}, err
	}
	for _, observation := range observations {
		out.Values[observation.Indicator] = observation.Value
	}
	return out, nil
}

// FetchSeries fetches the requested indicators for the normalized year range in
// one request.
func (p *Provider) FetchSeries(ctx context.Context, fields []string, iso2 string, from, to int) (model.Series, error) {
	codes := p.registry.Codes(fields)
	if len(codes) == 0 {
		return model.Series{}, nil
	}

	from, to = providers.NormalizeYearRange(from, to, providers.PreviousYear(p.now()))
	date := strconv.Itoa(from) + ":" + strconv.Itoa(to)
	observations, err := p.fetchObservations(ctx, iso2, codes, date)
	if err != nil {
		return nil, err
	}
	return providers.BuildSeries(from, to, observations), nil
}

func (p *Provider) fetchObservations(ctx context.Context, iso2 string, codes []string, date string) ([]model.Observation, error) {
	path, params := p.indicatorPath(iso2, codes, date)
	body, err := p.doRequest(ctx, endpointIndicator, path, params)
	if err != nil {
		return nil, err
	}
	observations, err := parseObservations(body)
	if err != nil {
		return nil, err
	}
	for i := range observations {
		observations[i].Provider = p.Name()
		if observations[i].CountryISO2 == "" {
			observations[i].CountryISO2 = iso2
		}
	}
	return observations, nil
}

func (p *Provider) indicatorPath(iso2 string, codes []string, date string) (string, url.Values) {
	escaped := make([]string, len(codes))
	for i, code := range codes {
		escaped[i] = url.PathEscape(code)
	}
	path := p.config.IndicatorPath
	path = strings.ReplaceAll(path, "{country}", url.PathEscape(iso2))
	path = strings.ReplaceAll(path, "{indicator}", strings.Join(escaped, indicatorSeparator))

	params := url.Values{}
	params.Set("date", date)
	params.Set("source", p.config.Source)
	params.Set("per_page", strconv.Itoa(p.config.PerPage))
	return path, params
}

func (p *Provider) doRequest(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	target := p.buildURL(path, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.ObserveUpstream(p.Name(), endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("worldbank: %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	p.metrics.ObserveUpstream(p.Name(), endpoint, strconv.Itoa(resp.StatusCode), elapsed)
	p.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"url":      target,
		"status":   resp.StatusCode,
		"elapsed":  elapsed,
	}).Debug("worldbank request")
	if err != nil {
		return nil, fmt.Errorf("worldbank: read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := messageFromBody(body)
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: message}
	}
	return body, nil
}

func (p *Provider) buildURL(path string, params url.Values) string {
	base := strings.TrimRight(p.config.BaseURL, "/")
	endpoint := base + "/" + strings.TrimLeft(path, "/")

	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	if p.config.FormatParam != "" && p.config.FormatValue != "" {
		query.Set(p.config.FormatParam, p.config.FormatValue)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

var _ providers.Provider = (*Provider)(nil)
