package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/function"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
)

var _ function.Function = &UserFilterFunction{}

func NewUserFilterFunction() function.Function {
	return &UserFilterFunction{}
}

// UserFilterFunction implements the user_filter function.
type UserFilterFunction struct{}

func (f UserFilterFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "user_filter"
}

func (f UserFilterFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:             "Build the search filter for a single account",
		Description:         "Returns (uid=<uid>) with the uid escaped for use in an LDAP search filter.",
		MarkdownDescription: "Returns `(uid=<uid>)` with the uid escaped for use in an LDAP search filter.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "uid",
				Description:         "Account uid, for example vsc40000.",
				MarkdownDescription: "Account uid, for example `vsc40000`.",
			},
		},
		Return: function.StringReturn{},
	}
}

func (f UserFilterFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var uid string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &uid))
	if resp.Error != nil {
		return
	}

	if uid == "" {
		resp.Error = function.NewArgumentFuncError(0, "uid cannot be empty")
		return
	}

	resp.Error = resp.Result.Set(ctx, ldapclient.UserFilter(uid))
}
