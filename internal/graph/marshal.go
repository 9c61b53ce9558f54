package graph

import (
	"io"

	"github.com/99designs/gqlgen/graphql"
)

// object writes its fields in selection order.
type object struct {
	keys   []string
	values []graphql.Marshaler
}

func newObject(size int) *object {
	return &object{
		keys:   make([]string, 0, size),
		values: make([]graphql.Marshaler, 0, size),
	}
}

func (o *object) add(key string, value graphql.Marshaler) {
	if value == nil {
		value = graphql.Null
	}
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *object) MarshalGQL(w io.Writer) {
	io.WriteString(w, "{")
	for i, key := range o.keys {
		if i > 0 {
			io.WriteString(w, ",")
		}
		graphql.MarshalString(key).MarshalGQL(w)
		io.WriteString(w, ":")
		o.values[i].MarshalGQL(w)
	}
	io.WriteString(w, "}")
}

func marshalOptionalString(value *string) graphql.Marshaler {
	if value == nil {
		return graphql.Null
	}
	return graphql.MarshalString(*value)
}

func marshalStrings(values []string) graphql.Marshaler {
	out := make(graphql.Array, len(values))
	for i, value := range values {
		out[i] = graphql.MarshalString(value)
	}
	return out
}
