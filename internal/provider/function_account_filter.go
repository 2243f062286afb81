package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
	"github.com/isometry/terraform-provider-vsc/internal/provider/helpers"
)

var _ function.Function = &AccountFilterFunction{}

func NewAccountFilterFunction() function.Function {
	return &AccountFilterFunction{}
}

// AccountFilterFunction implements the account_filter function.
type AccountFilterFunction struct{}

// Metadata returns the function name and signature.
func (f AccountFilterFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "account_filter"
}

// Definition returns the function schema including parameters and return types.
func (f AccountFilterFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Build an LDAP search filter from attribute criteria",
		Description: "Builds a conjunctive LDAP search filter from a map of attribute names to values. Scalar values become equality matches. Lists become a disjunction of equality matches. Null values and empty lists are ignored. Values are escaped and attributes are emitted in sorted order.",
		MarkdownDescription: "Builds a conjunctive LDAP search filter from a map of attribute names to values.\n\n" +
			"- Scalar values become equality matches, with bools rendered as `TRUE` or `FALSE`\n" +
			"- Lists become a disjunction of equality matches (duplicates removed)\n" +
			"- Null values and empty lists are ignored\n" +
			"- Values are escaped and attributes are emitted in sorted order\n\n" +
			"For example `{ status = \"active\", institute = [\"leuven\", \"gent\"] }` yields " +
			"`(&(|(institute=gent)(institute=leuven))(status=active))`.",
		Parameters: []function.Parameter{
			function.DynamicParameter{
				Name:                "criteria",
				Description:         "Map or object of attribute names to a value or list of values.",
				MarkdownDescription: "Map or object of attribute names to a value or list of values.",
			},
		},
		Return: function.StringReturn{},
	}
}

// Run implements the function logic.
func (f AccountFilterFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var criteria types.Dynamic

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &criteria))
	if resp.Error != nil {
		return
	}

	if criteria.IsNull() || criteria.IsUnknown() {
		resp.Error = function.NewArgumentFuncError(0, "criteria parameter cannot be null or unknown")
		return
	}

	criteriaMap, err := helpers.ExtractMapFromDynamic(ctx, criteria)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, fmt.Sprintf("Failed to extract criteria map: %s", err.Error()))
		return
	}

	values := make(map[string]any, len(criteriaMap))
	for name, val := range criteriaMap {
		goVal, err := helpers.TerraformValueToGo(ctx, val)
		if err != nil {
			resp.Error = function.NewArgumentFuncError(0, fmt.Sprintf("Failed to convert criterion %s: %s", name, err.Error()))
			return
		}
		values[name] = goVal
	}

	filter, err := buildAccountFilter(values)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, err.Error())
		return
	}

	resp.Error = resp.Result.Set(ctx, types.StringValue(filter))
}

// buildAccountFilter combines the criteria into a single filter.
func buildAccountFilter(criteria map[string]any) (string, error) {
	var components []string

	for _, name := range slices.Sorted(maps.Keys(criteria)) {
		if !attributeNamePattern.MatchString(name) {
			return "", fmt.Errorf("%q is not a valid attribute name", name)
		}
		field := ldapclient.Field(name)

		switch v := criteria[name].(type) {
		case nil:
			continue
		case []any:
			alternatives, err := uniqueSorted(name, v)
			if err != nil {
				return "", err
			}
			if len(alternatives) == 0 {
				continue
			}
			matches := make([]string, len(alternatives))
			for i, alt := range alternatives {
				matches[i] = ldapclient.Equal(field, alt)
			}
			components = append(components, ldapclient.Or(matches...))
		default:
			s, err := filterValue(v)
			if err != nil {
				return "", fmt.Errorf("criterion %s: %w", name, err)
			}
			components = append(components, ldapclient.Equal(field, s))
		}
	}

	if len(components) == 0 {
		return "", fmt.Errorf("criteria must contain at least one non-empty value")
	}

	return ldapclient.And(components...), nil
}

// uniqueSorted converts list elements to filter values, dropping nulls and duplicates.
func uniqueSorted(name string, items []any) ([]string, error) {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if item == nil {
			continue
		}
		s, err := filterValue(item)
		if err != nil {
			return nil, fmt.Errorf("criterion %s: %w", name, err)
		}
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	slices.Sort(result)
	return result, nil
}

// filterValue renders a scalar in LDAP string syntax.
func filterValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strings.ToUpper(strconv.FormatBool(v)), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
