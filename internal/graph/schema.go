package graph

import (
	_ "embed"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var sourceSchema string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: sourceSchema})

var (
	queryImplementors      = []string{"Query"}
	countryImplementors    = []string{"Country"}
	timeSeriesImplementors = []string{"TimeSeries"}
)

// Fields served from the upstream country record or the series entry itself
// rather than from the indicator registry.
var (
	countryStructuralFields    = []string{"name", "iso2", "capitalCity", "longitude", "latitude", "time"}
	timeSeriesStructuralFields = []string{"date"}
)

// Schema returns the parsed schema served by the executable schema.
func Schema() *ast.Schema {
	return parsedSchema
}
