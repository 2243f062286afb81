package provider

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
	"github.com/isometry/terraform-provider-vsc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-vsc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &UsersDataSource{}
var _ datasource.DataSourceWithConfigure = &UsersDataSource{}

// attributeNamePattern matches RFC 4512 attribute descriptors.
var attributeNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

func NewUsersDataSource() datasource.DataSource {
	return &UsersDataSource{}
}

// UsersDataSource runs a search and extracts one attribute from every entry.
type UsersDataSource struct {
	providerData *ldapclient.ProviderData
}

// UsersDataSourceModel describes the data source data model.
type UsersDataSourceModel struct {
	// Search configuration
	Target types.String `tfsdk:"target"`
	Filter types.String `tfsdk:"filter"`
	Field  types.String `tfsdk:"field"`

	// Output
	Values types.List   `tfsdk:"values"` // First value of field per entry
	DNs    types.List   `tfsdk:"dns"`    // Entry DNs, same order as values
	Count  types.Int64  `tfsdk:"count"`
	ID     types.String `tfsdk:"id"`
}

func (d *UsersDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_users"
}

func (d *UsersDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Searches the KU Leuven or VSC directory and returns one attribute of every matching entry, " +
			"in the order the server returned them.",

		Attributes: map[string]schema.Attribute{
			"target": schema.StringAttribute{
				MarkdownDescription: "Directory to query. One of `kuleuven` or `vsc` (case-insensitive).",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidTarget(),
				},
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "LDAP search filter, for example `(&(status=active)(institute=leuven))`. " +
					"The search covers the whole subtree under the target's base DN.",
				Required: true,
				Validators: []validator.String{
					validators.IsValidFilter(),
				},
			},
			"field": schema.StringAttribute{
				MarkdownDescription: "Attribute to extract from every entry. Defaults to `uid`. " +
					"Reading fails when a returned entry lacks the attribute.",
				Optional: true,
				Computed: true,
				Validators: []validator.String{
					stringvalidator.RegexMatches(attributeNamePattern, "must be an LDAP attribute name"),
				},
			},
			"values": schema.ListAttribute{
				MarkdownDescription: "The first value of `field` for every matching entry.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"dns": schema.ListAttribute{
				MarkdownDescription: "Distinguished names of the matching entries, in the same order as `values`.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"count": schema.Int64Attribute{
				MarkdownDescription: "Number of matching entries.",
				Computed:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "Identifier of the search, derived from the target and filter.",
				Computed:            true,
			},
		},
	}
}

func (d *UsersDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *UsersDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data UsersDataSourceModel

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
			"The provider was not configured before reading vsc_users. Please report this issue to the provider developers.",
		)
		return
	}

	target, err := ldapclient.ParseTarget(data.Target.ValueString())
	if err != nil {
		resp.Diagnostics.AddAttributeError(pathTarget, "Invalid Directory Target", err.Error())
		return
	}

	field := ldapclient.FieldUID
	if !data.Field.IsNull() && !data.Field.IsUnknown() && data.Field.ValueString() != "" {
		field = ldapclient.Field(data.Field.ValueString())
	}
	filter := data.Filter.ValueString()

	tflog.SubsystemDebug(ctx, "provider", "Searching directory", map[string]any{
		"target": target.String(),
		"filter": filter,
		"field":  field.String(),
	})

	start := time.Now()
	var (
		values []string
		dns    []string
	)
	err = d.providerData.WithSession(ctx, target, func(s *ldapclient.Session) error {
		rs, err := s.Search(ctx, filter)
		if err != nil {
			return err
		}
		if values, err = s.GetField(field); err != nil {
			return err
		}
		dns = make([]string, 0, rs.Len())
		for _, e := range rs.Entries {
			dns = append(dns, e.DN)
		}
		return nil
	})
	if err != nil {
		if ldapclient.IsFieldError(err) {
			resp.Diagnostics.AddAttributeError(
				path.Root("field"),
				"Attribute Not Available",
				fmt.Sprintf("The search returned entries without the %q attribute.\n\nField Error: %s", field, err.Error()),
			)
			return
		}
		resp.Diagnostics.AddError(
			"Error Searching Directory",
			fmt.Sprintf("Could not search the %s directory.\n\n%s Error: %s", target, errorCategoryTitle(err), err.Error()),
		)
		return
	}

	tflog.SubsystemDebug(ctx, "provider", "Directory search completed", map[string]any{
		"target":      target.String(),
		"count":       len(values),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	valueList, diags := helpers.StringsToList(ctx, values)
	resp.Diagnostics.Append(diags...)
	dnList, diags := helpers.StringsToList(ctx, dns)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.Field = types.StringValue(field.String())
	data.Values = valueList
	data.DNs = dnList
	data.Count = types.Int64Value(int64(len(values)))
	data.ID = types.StringValue(fmt.Sprintf("%s:%s", target, ldapclient.NormalizeFilter(filter)))

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
