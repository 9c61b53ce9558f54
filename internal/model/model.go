package model

import "time"

type Indicator struct {
	Name string
	Code string
}

// Values maps provider indicator codes to observed values. A nil value means the
// provider reported the indicator without data.
type Values map[string]*string

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for code, value := range v {
		out[code] = value
	}
	return out
}

type Country struct {
	ID          string
	ISO2Code    string
	Name        string
	CapitalCity string
	Longitude   string
	Latitude    string
	Region      string
	Values      Values
}

type TimeSeries struct {
	Date   string
	Values Values
}

// Series holds time series entries keyed by their offset from the first requested
// year. Offsets without observations are absent.
type Series map[int]*TimeSeries

// Len returns the highest populated offset plus one.
func (s Series) Len() int {
	n := 0
	for offset := range s {
		if offset+1 > n {
			n = offset + 1
		}
	}
	return n
}

// List renders the series densely; missing offsets are nil.
func (s Series) List() []*TimeSeries {
	out := make([]*TimeSeries, s.Len())
	for offset, entry := range s {
		if offset < 0 {
			continue
		}
		out[offset] = entry
	}
	return out
}

type Observation struct {
	Provider    string
	CountryISO2 string
	Indicator   string
	Date        string
	Value       *string
	IngestedAt  time.Time
}
