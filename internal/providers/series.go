package providers

import (
	"strconv"
	"strings"
	"time"

	"countrygraph/internal/model"
)

// PreviousYear is the most recently completed calendar year.
func PreviousYear(now time.Time) int {
	return now.Year() - 1
}

// NormalizeYearRange clamps a requested range to [0, previousYear] and collapses
// from down to to when it overshoots.
func NormalizeYearRange(from, to, previousYear int) (int, int) {
	from = max(from, 0)
	to = max(to, 0)
	to = min(to, previousYear)
	from = min(from, to)
	return from, to
}

// BuildSeries groups observations by year offset from the start of the range.
// Observations without an integer year or outside [from, to] are dropped.
func BuildSeries(from, to int, observations []model.Observation) model.Series {
	series := make(model.Series)
	for _, observation := range observations {
		year, err := strconv.Atoi(strings.TrimSpace(observation.Date))
		if err != nil {
			continue
		}
		offset := year - from
		if offset < 0 || year > to {
			continue
		}
		entry, ok := series[offset]
		if !ok {
			entry = &model.TimeSeries{Date: observation.Date, Values: model.Values{}}
			series[offset] = entry
		}
		entry.Values[observation.Indicator] = observation.Value
	}
	return series
}

// Flatten turns a series back into observations for persistence.
func Flatten(providerName, iso2 string, series model.Series) []model.Observation {
	observations := make([]model.Observation, 0)
	for _, entry := range series {
		if entry == nil {
			continue
		}
		for code, value := range entry.Values {
			observations = append(observations, model.Observation{
				Provider:    providerName,
				CountryISO2: iso2,
				Indicator:   code,
				Date:        entry.Date,
				Value:       value,
			})
		}
	}
	return observations
}
