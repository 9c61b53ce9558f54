package indicators

import "sort"

// RequestedFields filters a selection down to the registry fields it names. The
// result is de-duplicated and ordered by declaration, so it depends only on the
// set of names selected.
func (r *Registry) RequestedFields(selection []string) []string {
	seen := make(map[string]struct{}, len(selection))
	fields := make([]string, 0, len(selection))
	for _, name := range selection {
		if _, ok := r.byName[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return r.rank[fields[i]] < r.rank[fields[j]]
	})
	return fields
}
