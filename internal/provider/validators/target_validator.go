package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = targetValidator{}

// targetValidator validates that a string names a supported directory
// target, ignoring case and surrounding whitespace.
type targetValidator struct{}

// Description describes the validation in plain text.
func (v targetValidator) Description(_ context.Context) string {
	return fmt.Sprintf("value must be one of: %s (case-insensitive)", strings.Join(ldapclient.SupportedTargets(), ", "))
}

// MarkdownDescription describes the validation in Markdown.
func (v targetValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateString performs the validation.
func (v targetValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	// Skip validation for unknown or null values
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if _, err := ldapclient.ParseTarget(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Directory Target",
			fmt.Sprintf(
				"The value %q is not valid. Must be one of: %s (case-insensitive)",
				value,
				strings.Join(ldapclient.SupportedTargets(), ", "),
			),
		)
	}
}

// IsValidTarget returns a validator which ensures that any configured
// attribute value names a directory target known to the provider.
//
// Unknown values and null values are skipped from validation.
func IsValidTarget() validator.String {
	return targetValidator{}
}
