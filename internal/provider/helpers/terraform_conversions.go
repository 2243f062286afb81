// Package helpers provides common utility functions for Terraform type conversions
// shared by data sources and functions.
package helpers

import (
	"context"
	"fmt"
	"maps"
	"math/big"
	"slices"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// TerraformValueToGo converts various Terraform attr.Value types to Go values.
// It recursively handles lists, sets, tuples, maps and objects.
// Returns nil for null values and an error for unknown values.
func TerraformValueToGo(ctx context.Context, value attr.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	if value.IsUnknown() {
		return nil, fmt.Errorf("cannot process unknown values")
	}

	switch v := value.(type) {
	case types.String:
		return v.ValueString(), nil
	case types.Int64:
		return v.ValueInt64(), nil
	case types.Float64:
		return v.ValueFloat64(), nil
	case types.Bool:
		return v.ValueBool(), nil
	case types.Number:
		bigFloat := v.ValueBigFloat()
		if bigFloat == nil {
			return nil, fmt.Errorf("number value is nil")
		}
		// Integral numbers keep their textual form for use in filters
		if bigFloat.IsInt() {
			if i, acc := bigFloat.Int64(); acc == big.Exact {
				return i, nil
			}
			return bigFloat.Text('f', 0), nil
		}
		floatVal, _ := bigFloat.Float64()
		return floatVal, nil
	case types.List:
		return elementsToGo(ctx, v.Elements())
	case types.Set:
		return elementsToGo(ctx, v.Elements())
	case types.Tuple:
		return elementsToGo(ctx, v.Elements())
	case types.Map:
		return attributesToGo(ctx, v.Elements())
	case types.Object:
		return attributesToGo(ctx, v.Attributes())
	case types.Dynamic:
		return TerraformValueToGo(ctx, v.UnderlyingValue())
	default:
		return nil, fmt.Errorf("unsupported type: %T", value)
	}
}

func elementsToGo(ctx context.Context, elements []attr.Value) ([]any, error) {
	result := make([]any, len(elements))
	for i, elem := range elements {
		goVal, err := TerraformValueToGo(ctx, elem)
		if err != nil {
			return nil, err
		}
		result[i] = goVal
	}
	return result, nil
}

func attributesToGo(ctx context.Context, attributes map[string]attr.Value) (map[string]any, error) {
	result := make(map[string]any, len(attributes))
	for name, val := range attributes {
		goVal, err := TerraformValueToGo(ctx, val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", name, err)
		}
		result[name] = goVal
	}
	return result, nil
}

// ExtractMapFromDynamic extracts a map[string]attr.Value from a dynamic value.
// It handles both map and object types by converting them to a unified map representation.
// Returns an error if the underlying value is neither a map nor an object.
func ExtractMapFromDynamic(ctx context.Context, value types.Dynamic) (map[string]attr.Value, error) {
	underlyingVal := value.UnderlyingValue()

	if mapVal, ok := underlyingVal.(types.Map); ok {
		return mapVal.Elements(), nil
	}

	if objVal, ok := underlyingVal.(types.Object); ok {
		result := make(map[string]attr.Value)
		maps.Copy(result, objVal.Attributes())
		return result, nil
	}

	return nil, fmt.Errorf("expected map or object type, got %T", underlyingVal)
}

// StringOrNull returns a null string for "" and a known value otherwise.
func StringOrNull(s string) types.String {
	if s == "" {
		return types.StringNull()
	}
	return types.StringValue(s)
}

// StringsToList converts a string slice to a list of strings. A nil slice
// yields an empty, known list.
func StringsToList(ctx context.Context, values []string) (types.List, diag.Diagnostics) {
	if values == nil {
		values = []string{}
	}
	return types.ListValueFrom(ctx, types.StringType, values)
}

// AttributesToMap converts a multi-valued attribute map to a map of string
// lists. Values keep their server order.
func AttributesToMap(ctx context.Context, attributes map[string][]string) (types.Map, diag.Diagnostics) {
	var diags diag.Diagnostics
	elemType := types.ListType{ElemType: types.StringType}

	if attributes == nil {
		return types.MapValueMust(elemType, map[string]attr.Value{}), diags
	}

	elements := make(map[string]attr.Value, len(attributes))
	for _, name := range slices.Sorted(maps.Keys(attributes)) {
		list, d := StringsToList(ctx, attributes[name])
		diags.Append(d...)
		if d.HasError() {
			return types.MapNull(elemType), diags
		}
		elements[name] = list
	}

	m, d := types.MapValue(elemType, elements)
	diags.Append(d...)
	return m, diags
}
