package ldap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Equal builds an equality filter with the value escaped per RFC 4515.
func Equal(field Field, value string) string {
	return fmt.Sprintf("(%s=%s)", field, ldap.EscapeFilter(value))
}

// UserFilter matches the account with the given uid.
func UserFilter(uid string) string {
	return Equal(FieldUID, uid)
}

// Present matches entries that carry the attribute.
func Present(field Field) string {
	return fmt.Sprintf("(%s=*)", field)
}

// And combines filters conjunctively. A single filter is returned unchanged.
func And(filters ...string) string {
	return combine("&", filters)
}

// Or combines filters disjunctively. A single filter is returned unchanged.
func Or(filters ...string) string {
	return combine("|", filters)
}

// Not negates a filter.
func Not(filter string) string {
	return "(!" + filter + ")"
}

func combine(op string, filters []string) string {
	switch len(filters) {
	case 0:
		return ""
	case 1:
		return filters[0]
	}
	return "(" + op + strings.Join(filters, "") + ")"
}

var (
	spaceBetweenComponents = regexp.MustCompile(`\)\s+\(`)
	spaceAfterOperator     = regexp.MustCompile(`\(\s*([&|!])\s+\(`)
)

// NormalizeFilter removes whitespace between filter components, as in
// "(&(status=inactive) (institute=leuven))". Literal parentheses inside
// values must be escaped, so only structural whitespace is affected.
func NormalizeFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	filter = spaceAfterOperator.ReplaceAllString(filter, "($1(")
	return spaceBetweenComponents.ReplaceAllString(filter, ")(")
}

// ValidateFilter compiles filter client-side and reports a QueryError when
// it is malformed.
func ValidateFilter(filter string) error {
	if strings.TrimSpace(filter) == "" {
		return &DirectoryError{
			Operation: "search",
			Category:  ErrorCategoryQuery,
			Message:   "filter cannot be empty",
		}
	}
	if _, err := ldap.CompileFilter(filter); err != nil {
		return NewQueryError(err)
	}
	return nil
}
