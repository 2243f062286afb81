package provider

import (
	"github.com/hashicorp/terraform-plugin-framework/path"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
)

var pathTarget = path.Root("target")

// errorCategoryTitle names the error kind used in diagnostic details.
func errorCategoryTitle(err error) string {
	switch ldapclient.GetErrorCategory(err) {
	case ldapclient.ErrorCategoryConfiguration:
		return "Configuration"
	case ldapclient.ErrorCategoryConnection:
		return "Connection"
	case ldapclient.ErrorCategoryAuthentication:
		return "Authentication"
	case ldapclient.ErrorCategoryQuery:
		return "Query"
	case ldapclient.ErrorCategoryField:
		return "Field"
	case ldapclient.ErrorCategoryState:
		return "Session"
	default:
		return "LDAP"
	}
}
