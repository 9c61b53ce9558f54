package graph

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"countrygraph/internal/model"
)

type ResolverRoot interface {
	Query() QueryResolver
	Country() CountryResolver
	TimeSeries() TimeSeriesResolver
}

type QueryResolver interface {
	Country(ctx context.Context, code string) (*model.Country, error)
}

// CountryResolver resolves the Country fields that are not plain record
// attributes. Indicator receives the selected field name.
type CountryResolver interface {
	Iso2(ctx context.Context, obj *model.Country) (*string, error)
	Time(ctx context.Context, obj *model.Country, from int, to int) ([]*model.TimeSeries, error)
	Indicator(ctx context.Context, obj *model.Country, name string) (*string, error)
}

type TimeSeriesResolver interface {
	Indicator(ctx context.Context, obj *model.TimeSeries, name string) (*string, error)
}

type Config struct {
	Schema    *ast.Schema
	Resolvers ResolverRoot
}

// NewExecutableSchema creates an ExecutableSchema from the ResolverRoot interface.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{
		schema:    cfg.Schema,
		resolvers: cfg.Resolvers,
	}
}

type executableSchema struct {
	schema    *ast.Schema
	resolvers ResolverRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	if e.schema != nil {
		return e.schema
	}
	return parsedSchema
}

// Complexity charges a time series selection once per requested year.
func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]interface{}) (int, bool) {
	switch typeName + "." + field {
	case "Country.time":
		from, err := graphql.UnmarshalInt(rawArgs["from"])
		if err != nil {
			return 0, false
		}
		to, err := graphql.UnmarshalInt(rawArgs["to"])
		if err != nil {
			return 0, false
		}
		return 1 + childComplexity*max(to-from+1, 1), true
	}
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := executionContext{OperationContext: opCtx, executableSchema: e}

	switch opCtx.Operation.Operation {
	case ast.Query:
		first := true
		return func(ctx context.Context) *graphql.Response {
			if !first {
				return nil
			}
			first = false

			data := ec._Query(ctx, opCtx.Operation.SelectionSet)
			var buf bytes.Buffer
			data.MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}
}

type executionContext struct {
	*graphql.OperationContext
	*executableSchema
}

// field runs fn with a field context for field pushed onto ctx. Panics are
// reported on the field path and the field becomes null.
func (ec *executionContext) field(ctx context.Context, object string, field graphql.CollectedField, isResolver bool, fn func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler) (ret graphql.Marshaler) {
	fc := &graphql.FieldContext{
		Object:     object,
		Field:      field,
		IsMethod:   isResolver,
		IsResolver: isResolver,
	}
	ctx = graphql.WithFieldContext(ctx, fc)
	defer func() {
		if r := recover(); r != nil {
			graphql.AddError(ctx, ec.Recover(ctx, r))
			ret = graphql.Null
		}
	}()
	return fn(ctx, fc)
}

// resolve passes next through the field middleware. Errors are recorded on
// the field path and reported as !ok.
func (ec *executionContext) resolve(ctx context.Context, next graphql.Resolver) (interface{}, bool) {
	var (
		res interface{}
		err error
	)
	if ec.ResolverMiddleware != nil {
		res, err = ec.ResolverMiddleware(ctx, next)
	} else {
		res, err = next(ctx)
	}
	if err != nil {
		graphql.AddError(ctx, err)
		return nil, false
	}
	return res, true
}

func (ec *executionContext) _Query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, queryImplementors)
	ctx = graphql.WithFieldContext(ctx, &graphql.FieldContext{Object: "Query"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("Query"))
		case "country":
			out.add(field.Alias, ec._Query_country(ctx, field))
		case "__type":
			out.add(field.Alias, ec._Query___type(ctx, field))
		case "__schema":
			out.add(field.Alias, ec._Query___schema(ctx, field))
		default:
			panic("unknown field " + strconv.Quote(field.Name))
		}
	}
	return out
}

func (ec *executionContext) _Query_country(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	return ec.field(ctx, "Query", field, true, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		rawArgs := field.ArgumentMap(ec.Variables)
		code, err := graphql.UnmarshalString(rawArgs["code"])
		if err != nil {
			graphql.AddError(ctx, fmt.Errorf("argument code: %w", err))
			return graphql.Null
		}
		fc.Args = map[string]interface{}{"code": code}

		res, ok := ec.resolve(ctx, func(rctx context.Context) (interface{}, error) {
			return ec.resolvers.Query().Country(rctx, code)
		})
		if !ok {
			return graphql.Null
		}
		country, _ := res.(*model.Country)
		if country == nil {
			return graphql.Null
		}
		fc.Result = country
		return ec._Country(ctx, field.Selections, country)
	})
}

func (ec *executionContext) _Query___type(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	return ec.field(ctx, "Query", field, false, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		rawArgs := field.ArgumentMap(ec.Variables)
		name, err := graphql.UnmarshalString(rawArgs["name"])
		if err != nil {
			graphql.AddError(ctx, fmt.Errorf("argument name: %w", err))
			return graphql.Null
		}
		fc.Args = map[string]interface{}{"name": name}

		typ, err := ec.introspectType(name)
		if err != nil {
			graphql.AddError(ctx, err)
			return graphql.Null
		}
		if typ == nil {
			return graphql.Null
		}
		return ec.___Type(ctx, field.Selections, typ)
	})
}

func (ec *executionContext) _Query___schema(ctx context.Context, field graphql.CollectedField) graphql.Marshaler {
	return ec.field(ctx, "Query", field, false, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		schema, err := ec.introspectSchema()
		if err != nil {
			graphql.AddError(ctx, err)
			return graphql.Null
		}
		return ec.___Schema(ctx, field.Selections, schema)
	})
}

func (ec *executionContext) _Country(ctx context.Context, sel ast.SelectionSet, obj *model.Country) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, countryImplementors)

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("Country"))
		case "name":
			out.add(field.Alias, graphql.MarshalString(obj.Name))
		case "capitalCity":
			out.add(field.Alias, graphql.MarshalString(obj.CapitalCity))
		case "longitude":
			out.add(field.Alias, graphql.MarshalString(obj.Longitude))
		case "latitude":
			out.add(field.Alias, graphql.MarshalString(obj.Latitude))
		case "iso2":
			out.add(field.Alias, ec._Country_iso2(ctx, field, obj))
		case "time":
			out.add(field.Alias, ec._Country_time(ctx, field, obj))
		default:
			out.add(field.Alias, ec._Country_indicator(ctx, field, obj))
		}
	}
	return out
}

func (ec *executionContext) _Country_iso2(ctx context.Context, field graphql.CollectedField, obj *model.Country) graphql.Marshaler {
	return ec.field(ctx, "Country", field, true, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		res, ok := ec.resolve(ctx, func(rctx context.Context) (interface{}, error) {
			return ec.resolvers.Country().Iso2(rctx, obj)
		})
		if !ok {
			return graphql.Null
		}
		value, _ := res.(*string)
		fc.Result = value
		return marshalOptionalString(value)
	})
}

func (ec *executionContext) _Country_indicator(ctx context.Context, field graphql.CollectedField, obj *model.Country) graphql.Marshaler {
	return ec.field(ctx, "Country", field, true, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		res, ok := ec.resolve(ctx, func(rctx context.Context) (interface{}, error) {
			return ec.resolvers.Country().Indicator(rctx, obj, field.Name)
		})
		if !ok {
			return graphql.Null
		}
		value, _ := res.(*string)
		fc.Result = value
		return marshalOptionalString(value)
	})
}

func (ec *executionContext) _Country_time(ctx context.Context, field graphql.CollectedField, obj *model.Country) graphql.Marshaler {
	return ec.field(ctx, "Country", field, true, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		rawArgs := field.ArgumentMap(ec.Variables)
		from, err := graphql.UnmarshalInt(rawArgs["from"])
		if err != nil {
			graphql.AddError(ctx, fmt.Errorf("argument from: %w", err))
			return graphql.Null
		}
		to, err := graphql.UnmarshalInt(rawArgs["to"])
		if err != nil {
			graphql.AddError(ctx, fmt.Errorf("argument to: %w", err))
			return graphql.Null
		}
		fc.Args = map[string]interface{}{"from": from, "to": to}

		res, ok := ec.resolve(ctx, func(rctx context.Context) (interface{}, error) {
			return ec.resolvers.Country().Time(rctx, obj, from, to)
		})
		if !ok {
			return graphql.Null
		}
		entries, _ := res.([]*model.TimeSeries)
		if entries == nil {
			return graphql.Null
		}
		fc.Result = entries

		out := make(graphql.Array, len(entries))
		for i, entry := range entries {
			if entry == nil {
				out[i] = graphql.Null
				continue
			}
			index := i
			itemCtx := graphql.WithFieldContext(ctx, &graphql.FieldContext{Index: &index, Result: entry})
			out[i] = ec._TimeSeries(itemCtx, field.Selections, entry)
		}
		return out
	})
}

func (ec *executionContext) _TimeSeries(ctx context.Context, sel ast.SelectionSet, obj *model.TimeSeries) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, timeSeriesImplementors)

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("TimeSeries"))
		case "date":
			out.add(field.Alias, graphql.MarshalString(obj.Date))
		default:
			out.add(field.Alias, ec._TimeSeries_indicator(ctx, field, obj))
		}
	}
	return out
}

func (ec *executionContext) _TimeSeries_indicator(ctx context.Context, field graphql.CollectedField, obj *model.TimeSeries) graphql.Marshaler {
	return ec.field(ctx, "TimeSeries", field, true, func(ctx context.Context, fc *graphql.FieldContext) graphql.Marshaler {
		res, ok := ec.resolve(ctx, func(rctx context.Context) (interface{}, error) {
			return ec.resolvers.TimeSeries().Indicator(rctx, obj, field.Name)
		})
		if !ok {
			return graphql.Null
		}
		value, _ := res.(*string)
		fc.Result = value
		return marshalOptionalString(value)
	})
}
