package validators

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = filterValidator{}

// filterValidator validates that a string is an RFC 4515 search filter.
type filterValidator struct{}

// Description describes the validation in plain text.
func (v filterValidator) Description(_ context.Context) string {
	return "value must be a valid LDAP search filter"
}

// MarkdownDescription describes the validation in Markdown.
func (v filterValidator) MarkdownDescription(_ context.Context) string {
	return "value must be a valid LDAP search filter, such as `(&(status=active)(institute=leuven))`"
}

// ValidateString performs the validation.
func (v filterValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	// Skip validation for unknown or null values
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()

	if err := ldapclient.ValidateFilter(ldapclient.NormalizeFilter(value)); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Search Filter",
			fmt.Sprintf("The value %q is not a valid LDAP search filter: %s", value, err.Error()),
		)
	}
}

// IsValidFilter returns a validator which ensures that any configured
// attribute value compiles as an LDAP search filter. Whitespace between
// filter components is accepted.
//
// Unknown values and null values are skipped from validation.
func IsValidFilter() validator.String {
	return filterValidator{}
}
