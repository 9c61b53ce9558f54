// Package indicators maps the short indicator names exposed over GraphQL to World
// Bank indicator codes and back.
package indicators

import (
	"fmt"
	"strings"

	"countrygraph/internal/model"
)

var defaultIndicators = []model.Indicator{
	{Name: "population", Code: "SP.POP.TOTL"},
	{Name: "GDP", Code: "NY.GDP.MKTP.CD"},
	{Name: "GDPPerCapita", Code: "NY.GDP.PCAP.CD"},
	{Name: "GDPPerCapitaPPP", Code: "NY.GDP.PCAP.PP.CD"},
	{Name: "lifeExpectancy", Code: "SP.DYN.LE00.IN"},
	{Name: "GINI", Code: "SI.POV.GINI"},
	{Name: "GDPGrowth", Code: "NY.GDP.MKTP.KD.ZG"},
	{Name: "exportsPerGDP", Code: "NE.EXP.GNFS.ZS"},
	{Name: "importsPerGDP", Code: "NE.IMP.GNFS.ZS"},
	{Name: "reserves", Code: "FI.RES.TOTL.CD"},
	{Name: "expensePerGDP", Code: "GC.XPN.TOTL.GD.ZS"},
	{Name: "GDPPerCapitaGrowth", Code: "NY.GDP.PCAP.KD.ZG"},
	{Name: "grossSavingsPerGDP", Code: "NY.GNS.ICTR.ZS"},
	{Name: "populationGrowth", Code: "SP.POP.GROW"},
}

// Default is the registry served by the GraphQL schema.
var Default = mustRegistry(defaultIndicators)

// Registry is immutable once built and safe for concurrent use.
type Registry struct {
	ordered []model.Indicator
	byName  map[string]string
	byCode  map[string]string
	rank    map[string]int
}

func NewRegistry(entries []model.Indicator) (*Registry, error) {
	r := &Registry{
		ordered: make([]model.Indicator, 0, len(entries)),
		byName:  make(map[string]string, len(entries)),
		byCode:  make(map[string]string, len(entries)),
		rank:    make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		code := strings.TrimSpace(entry.Code)
		if name == "" || code == "" {
			return nil, fmt.Errorf("indicators: entry %q/%q is incomplete", entry.Name, entry.Code)
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("indicators: duplicate name %q", name)
		}
		if _, exists := r.byCode[code]; exists {
			return nil, fmt.Errorf("indicators: duplicate code %q", code)
		}
		r.byName[name] = code
		r.byCode[code] = name
		r.rank[name] = len(r.ordered)
		r.ordered = append(r.ordered, model.Indicator{Name: name, Code: code})
	}
	return r, nil
}

func mustRegistry(entries []model.Indicator) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the provider code for a short name.
func (r *Registry) Lookup(name string) (string, bool) {
	code, ok := r.byName[name]
	return code, ok
}

// ShortName returns the short name for a provider code.
func (r *Registry) ShortName(code string) (string, bool) {
	name, ok := r.byCode[code]
	return name, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Indicators returns the entries in declaration order.
func (r *Registry) Indicators() []model.Indicator {
	out := make([]model.Indicator, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.ordered))
	for i, entry := range r.ordered {
		out[i] = entry.Name
	}
	return out
}

// Codes maps short names to provider codes, dropping unknown names and duplicates.
func (r *Registry) Codes(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	codes := make([]string, 0, len(names))
	for _, name := range names {
		code, ok := r.byName[name]
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}
