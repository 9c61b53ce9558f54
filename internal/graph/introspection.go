package graph

import (
	"context"
	"errors"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2/ast"
)

var errIntrospectionDisabled = errors.New("introspection disabled")

func (ec *executionContext) introspectSchema() (*introspection.Schema, error) {
	if ec.DisableIntrospection {
		return nil, errIntrospectionDisabled
	}
	return introspection.WrapSchema(ec.Schema()), nil
}

func (ec *executionContext) introspectType(name string) (*introspection.Type, error) {
	if ec.DisableIntrospection {
		return nil, errIntrospectionDisabled
	}
	def, ok := ec.Schema().Types[name]
	if !ok {
		return nil, nil
	}
	return introspection.WrapTypeFromDef(ec.Schema(), def), nil
}

func includeDeprecated(field graphql.CollectedField, vars map[string]interface{}) bool {
	include, _ := field.ArgumentMap(vars)["includeDeprecated"].(bool)
	return include
}

func (ec *executionContext) ___Schema(ctx context.Context, sel ast.SelectionSet, obj *introspection.Schema) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"__Schema"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("__Schema"))
		case "description":
			out.add(field.Alias, marshalOptionalString(obj.Description()))
		case "types":
			types := obj.Types()
			list := make(graphql.Array, len(types))
			for i := range types {
				list[i] = ec.___Type(ctx, field.Selections, &types[i])
			}
			out.add(field.Alias, list)
		case "queryType":
			out.add(field.Alias, ec.___TypeOrNull(ctx, field.Selections, obj.QueryType()))
		case "mutationType":
			out.add(field.Alias, ec.___TypeOrNull(ctx, field.Selections, obj.MutationType()))
		case "subscriptionType":
			out.add(field.Alias, ec.___TypeOrNull(ctx, field.Selections, obj.SubscriptionType()))
		case "directives":
			directives := obj.Directives()
			list := make(graphql.Array, len(directives))
			for i := range directives {
				list[i] = ec.___Directive(ctx, field.Selections, &directives[i])
			}
			out.add(field.Alias, list)
		default:
			out.add(field.Alias, graphql.Null)
		}
	}
	return out
}

func (ec *executionContext) ___TypeOrNull(ctx context.Context, sel ast.SelectionSet, obj *introspection.Type) graphql.Marshaler {
	if obj == nil {
		return graphql.Null
	}
	return ec.___Type(ctx, sel, obj)
}

func (ec *executionContext) ___Type(ctx context.Context, sel ast.SelectionSet, obj *introspection.Type) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"__Type"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("__Type"))
		case "kind":
			out.add(field.Alias, graphql.MarshalString(obj.Kind()))
		case "name":
			out.add(field.Alias, marshalOptionalString(obj.Name()))
		case "description":
			out.add(field.Alias, marshalOptionalString(obj.Description()))
		case "specifiedByURL":
			out.add(field.Alias, marshalOptionalString(obj.SpecifiedByURL()))
		case "fields":
			typeFields := obj.Fields(includeDeprecated(field, ec.Variables))
			if typeFields == nil {
				out.add(field.Alias, graphql.Null)
				continue
			}
			list := make(graphql.Array, len(typeFields))
			for i := range typeFields {
				list[i] = ec.___Field(ctx, field.Selections, &typeFields[i])
			}
			out.add(field.Alias, list)
		case "interfaces":
			out.add(field.Alias, ec.___TypeList(ctx, field.Selections, obj.Interfaces()))
		case "possibleTypes":
			out.add(field.Alias, ec.___TypeList(ctx, field.Selections, obj.PossibleTypes()))
		case "enumValues":
			values := obj.EnumValues(includeDeprecated(field, ec.Variables))
			if values == nil {
				out.add(field.Alias, graphql.Null)
				continue
			}
			list := make(graphql.Array, len(values))
			for i := range values {
				list[i] = ec.___EnumValue(ctx, field.Selections, &values[i])
			}
			out.add(field.Alias, list)
		case "inputFields":
			inputs := obj.InputFields()
			if inputs == nil {
				out.add(field.Alias, graphql.Null)
				continue
			}
			out.add(field.Alias, ec.___InputValueList(ctx, field.Selections, inputs))
		case "ofType":
			out.add(field.Alias, ec.___TypeOrNull(ctx, field.Selections, obj.OfType()))
		default:
			out.add(field.Alias, graphql.Null)
		}
	}
	return out
}

func (ec *executionContext) ___TypeList(ctx context.Context, sel ast.SelectionSet, types []introspection.Type) graphql.Marshaler {
	if types == nil {
		return graphql.Null
	}
	list := make(graphql.Array, len(types))
	for i := range types {
		list[i] = ec.___Type(ctx, sel, &types[i])
	}
	return list
}

func (ec *executionContext) ___Field(ctx context.Context, sel ast.SelectionSet, obj *introspection.Field) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"__Field"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("__Field"))
		case "name":
			out.add(field.Alias, graphql.MarshalString(obj.Name))
		case "description":
			out.add(field.Alias, marshalOptionalString(obj.Description()))
		case "args":
			out.add(field.Alias, ec.___InputValueList(ctx, field.Selections, obj.Args))
		case "type":
			out.add(field.Alias, ec.___TypeOrNull(ctx, field.Selections, obj.Type))
		case "isDeprecated":
			out.add(field.Alias, graphql.MarshalBoolean(obj.IsDeprecated()))
		case "deprecationReason":
			out.add(field.Alias, marshalOptionalString(obj.DeprecationReason()))
		default:
			out.add(field.Alias, graphql.Null)
		}
	}
	return out
}

func (ec *executionContext) ___InputValueList(ctx context.Context, sel ast.SelectionSet, values []introspection.InputValue) graphql.Marshaler {
	list := make(graphql.Array, len(values))
	for i := range values {
		list[i] = ec.___InputValue(ctx, sel, &values[i])
	}
	return list
}

func (ec *executionContext) ___InputValue(ctx context.Context, sel ast.SelectionSet, obj *introspection.InputValue) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"__InputValue"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("__InputValue"))
		case "name":
			out.add(field.Alias, graphql.MarshalString(obj.Name))
		case "description":
			out.add(field.Alias, marshalOptionalString(obj.Description()))
		case "type":
			out.add(field.Alias, ec.___TypeOrNull(ctx, field.Selections, obj.Type))
		case "defaultValue":
			out.add(field.Alias, marshalOptionalString(obj.DefaultValue))
		default:
			out.add(field.Alias, graphql.Null)
		}
	}
	return out
}

func (ec *executionContext) ___EnumValue(ctx context.Context, sel ast.SelectionSet, obj *introspection.EnumValue) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"__EnumValue"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("__EnumValue"))
		case "name":
			out.add(field.Alias, graphql.MarshalString(obj.Name))
		case "description":
			out.add(field.Alias, marshalOptionalString(obj.Description()))
		case "isDeprecated":
			out.add(field.Alias, graphql.MarshalBoolean(obj.IsDeprecated()))
		case "deprecationReason":
			out.add(field.Alias, marshalOptionalString(obj.DeprecationReason()))
		default:
			out.add(field.Alias, graphql.Null)
		}
	}
	return out
}

func (ec *executionContext) ___Directive(ctx context.Context, sel ast.SelectionSet, obj *introspection.Directive) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{"__Directive"})

	out := newObject(len(fields))
	for _, field := range fields {
		switch field.Name {
		case "__typename":
			out.add(field.Alias, graphql.MarshalString("__Directive"))
		case "name":
			out.add(field.Alias, graphql.MarshalString(obj.Name))
		case "description":
			out.add(field.Alias, marshalOptionalString(obj.Description()))
		case "locations":
			out.add(field.Alias, marshalStrings(obj.Locations))
		case "args":
			out.add(field.Alias, ec.___InputValueList(ctx, field.Selections, obj.Args))
		case "isRepeatable":
			out.add(field.Alias, graphql.MarshalBoolean(obj.IsRepeatable))
		default:
			out.add(field.Alias, graphql.Null)
		}
	}
	return out
}
