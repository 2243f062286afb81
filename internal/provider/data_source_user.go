package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
	"github.com/isometry/terraform-provider-vsc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-vsc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &UserDataSource{}
var _ datasource.DataSourceWithConfigure = &UserDataSource{}

func NewUserDataSource() datasource.DataSource {
	return &UserDataSource{}
}

// UserDataSource looks up a single account by uid.
type UserDataSource struct {
	providerData *ldapclient.ProviderData
}

// UserDataSourceModel describes the data source data model.
type UserDataSourceModel struct {
	// Lookup
	Target types.String `tfsdk:"target"`
	UID    types.String `tfsdk:"uid"`
	Filter types.String `tfsdk:"filter"`

	// Result
	ID         types.String `tfsdk:"id"`
	Found      types.Bool   `tfsdk:"found"`
	DN         types.String `tfsdk:"dn"`
	Attributes types.Map    `tfsdk:"attributes"` // attribute name -> values

	// Typed account fields
	UIDNumber        types.Int64  `tfsdk:"uid_number"`
	GIDNumber        types.Int64  `tfsdk:"gid_number"`
	Mail             types.String `tfsdk:"mail"`
	Status           types.String `tfsdk:"status"`
	Active           types.Bool   `tfsdk:"active"`
	Institute        types.String `tfsdk:"institute"`
	InstituteLogin   types.String `tfsdk:"institute_login"`
	HomeDirectory    types.String `tfsdk:"home_directory"`
	DataDirectory    types.String `tfsdk:"data_directory"`
	ScratchDirectory types.String `tfsdk:"scratch_directory"`
	HomeQuota        types.Int64  `tfsdk:"home_quota"`
	DataQuota        types.Int64  `tfsdk:"data_quota"`
	ScratchQuota     types.Int64  `tfsdk:"scratch_quota"`
	LoginShell       types.String `tfsdk:"login_shell"`
	PublicKeys       types.List   `tfsdk:"public_keys"`
}

func (d *UserDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_user"
}

func (d *UserDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Retrieves a single account from the KU Leuven or VSC directory. " +
			"A user that does not match is reported through `found` rather than as an error.",

		Attributes: map[string]schema.Attribute{
			"target": schema.StringAttribute{
				MarkdownDescription: "Directory to query. One of `kuleuven` or `vsc` (case-insensitive).",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidTarget(),
				},
			},
			"uid": schema.StringAttribute{
				MarkdownDescription: "The `uid` of the account, for example `vsc40000`.",
				Required:            true,
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "Search filter used to fetch candidate entries. Defaults to `(uid=<uid>)`. " +
					"The account is selected from the results by `uid`.",
				Optional: true,
				Computed: true,
				Validators: []validator.String{
					validators.IsValidFilter(),
				},
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the account, or the `uid` when it was not found.",
				Computed:            true,
			},
			"found": schema.BoolAttribute{
				MarkdownDescription: "Whether an entry with the requested `uid` was returned by the search.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the account.",
				Computed:            true,
			},
			"attributes": schema.MapAttribute{
				MarkdownDescription: "All attributes of the entry, keyed by attribute name. Every attribute is multi-valued.",
				ElementType:         types.ListType{ElemType: types.StringType},
				Computed:            true,
			},
			"uid_number": schema.Int64Attribute{
				MarkdownDescription: "Numeric user id (`uidNumber`).",
				Computed:            true,
			},
			"gid_number": schema.Int64Attribute{
				MarkdownDescription: "Numeric primary group id (`gidNumber`).",
				Computed:            true,
			},
			"mail": schema.StringAttribute{
				MarkdownDescription: "Email address.",
				Computed:            true,
			},
			"status": schema.StringAttribute{
				MarkdownDescription: "Account status, for example `active` or `inactive`.",
				Computed:            true,
			},
			"active": schema.BoolAttribute{
				MarkdownDescription: "Whether `status` is `active`.",
				Computed:            true,
			},
			"institute": schema.StringAttribute{
				MarkdownDescription: "Home institute, for example `leuven`.",
				Computed:            true,
			},
			"institute_login": schema.StringAttribute{
				MarkdownDescription: "Login name at the home institute.",
				Computed:            true,
			},
			"home_directory": schema.StringAttribute{
				MarkdownDescription: "Path of the home directory.",
				Computed:            true,
			},
			"data_directory": schema.StringAttribute{
				MarkdownDescription: "Path of the data directory.",
				Computed:            true,
			},
			"scratch_directory": schema.StringAttribute{
				MarkdownDescription: "Path of the scratch directory.",
				Computed:            true,
			},
			"home_quota": schema.Int64Attribute{
				MarkdownDescription: "Home directory quota.",
				Computed:            true,
			},
			"data_quota": schema.Int64Attribute{
				MarkdownDescription: "Data directory quota.",
				Computed:            true,
			},
			"scratch_quota": schema.Int64Attribute{
				MarkdownDescription: "Scratch directory quota.",
				Computed:            true,
			},
			"login_shell": schema.StringAttribute{
				MarkdownDescription: "Login shell.",
				Computed:            true,
			},
			"public_keys": schema.ListAttribute{
				MarkdownDescription: "SSH public keys (`pubkey`).",
				ElementType:         types.StringType,
				Computed:            true,
			},
		},
	}
}

func (d *UserDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*ldapclient.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *ldapclient.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	d.providerData = providerData
}

func (d *UserDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data UserDataSourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	// Read Terraform configuration data into the model
	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if d.providerData == nil {
		resp.Diagnostics.AddError(
			"Unconfigured Provider",
			"The provider was not configured before reading vsc_user. Please report this issue to the provider developers.",
		)
		return
	}

	target, err := ldapclient.ParseTarget(data.Target.ValueString())
	if err != nil {
		resp.Diagnostics.AddAttributeError(pathTarget, "Invalid Directory Target", err.Error())
		return
	}

	uid := data.UID.ValueString()
	filter := ldapclient.UserFilter(uid)
	if !data.Filter.IsNull() && !data.Filter.IsUnknown() && data.Filter.ValueString() != "" {
		filter = data.Filter.ValueString()
	}

	tflog.SubsystemDebug(ctx, "provider", "Looking up user", map[string]any{
		"target": target.String(),
		"uid":    uid,
		"filter": filter,
	})

	start := time.Now()
	var (
		info    map[string][]string
		account *ldapclient.Account
	)
	err = d.providerData.WithSession(ctx, target, func(s *ldapclient.Session) error {
		rs, err := s.Search(ctx, filter)
		if err != nil {
			return err
		}
		if info, err = s.GetUserInfo(ctx, uid); err != nil {
			return err
		}
		account, err = rs.Account(ctx, uid)
		return err
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading User",
			fmt.Sprintf("Could not read user %q from the %s directory.\n\n%s Error: %s",
				uid, target, errorCategoryTitle(err), err.Error()),
		)
		return
	}

	data.Filter = types.StringValue(filter)

	if account == nil {
		tflog.SubsystemWarn(ctx, "provider", "User not found", map[string]any{
			"target": target.String(),
			"uid":    uid,
		})
		resp.Diagnostics.AddWarning(
			"User Not Found",
			fmt.Sprintf("No entry with uid %q was returned by the %s directory for filter %s.", uid, target, filter),
		)
		d.mapMissingToModel(ctx, &data, &resp.Diagnostics)
	} else {
		tflog.SubsystemDebug(ctx, "provider", "Successfully retrieved user", map[string]any{
			"target":      target.String(),
			"dn":          account.DN,
			"attributes":  len(info),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		d.mapAccountToModel(ctx, account, info, &data, &resp.Diagnostics)
	}
	if resp.Diagnostics.HasError() {
		return
	}

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// mapAccountToModel maps the directory entry to the Terraform model.
func (d *UserDataSource) mapAccountToModel(ctx context.Context, account *ldapclient.Account, info map[string][]string, data *UserDataSourceModel, diags *diag.Diagnostics) {
	data.ID = types.StringValue(account.DN)
	data.Found = types.BoolValue(true)
	data.DN = types.StringValue(account.DN)

	attributes, attrDiags := helpers.AttributesToMap(ctx, info)
	diags.Append(attrDiags...)
	data.Attributes = attributes

	data.UIDNumber = types.Int64Value(account.UIDNumber)
	data.GIDNumber = types.Int64Value(account.GIDNumber)
	data.Mail = helpers.StringOrNull(account.Mail)
	data.Status = helpers.StringOrNull(account.Status)
	data.Active = types.BoolValue(account.Active())
	data.Institute = helpers.StringOrNull(account.Institute)
	data.InstituteLogin = helpers.StringOrNull(account.InstituteLogin)
	data.HomeDirectory = helpers.StringOrNull(account.HomeDirectory)
	data.DataDirectory = helpers.StringOrNull(account.DataDirectory)
	data.ScratchDirectory = helpers.StringOrNull(account.ScratchDirectory)
	data.HomeQuota = types.Int64Value(account.HomeQuota)
	data.DataQuota = types.Int64Value(account.DataQuota)
	data.ScratchQuota = types.Int64Value(account.ScratchQuota)
	data.LoginShell = helpers.StringOrNull(account.LoginShell)

	keys, keyDiags := helpers.StringsToList(ctx, account.PublicKeys)
	diags.Append(keyDiags...)
	data.PublicKeys = keys
}

// mapMissingToModel fills the computed attributes for a user that was not found.
func (d *UserDataSource) mapMissingToModel(ctx context.Context, data *UserDataSourceModel, diags *diag.Diagnostics) {
	data.ID = data.UID
	data.Found = types.BoolValue(false)
	data.DN = types.StringNull()

	attributes, attrDiags := helpers.AttributesToMap(ctx, nil)
	diags.Append(attrDiags...)
	data.Attributes = attributes

	data.UIDNumber = types.Int64Null()
	data.GIDNumber = types.Int64Null()
	data.Mail = types.StringNull()
	data.Status = types.StringNull()
	data.Active = types.BoolValue(false)
	data.Institute = types.StringNull()
	data.InstituteLogin = types.StringNull()
	data.HomeDirectory = types.StringNull()
	data.DataDirectory = types.StringNull()
	data.ScratchDirectory = types.StringNull()
	data.HomeQuota = types.Int64Null()
	data.DataQuota = types.Int64Null()
	data.ScratchQuota = types.Int64Null()
	data.LoginShell = types.StringNull()

	keys, keyDiags := helpers.StringsToList(ctx, nil)
	diags.Append(keyDiags...)
	data.PublicKeys = keys
}
