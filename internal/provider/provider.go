package provider

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-vsc/internal/ldap"
)

// Environment variables consulted when the matching provider attribute is unset.
const (
	EnvConfigFile    = ldapclient.ConfigFileEnvVar
	EnvSkipTLSVerify = "VSC_LDAP_SKIP_TLS_VERIFY"
	EnvStartTLS      = "VSC_LDAP_START_TLS"
	EnvTimeout       = "VSC_LDAP_TIMEOUT"
)

// Ensure VSCProvider satisfies various provider interfaces.
var _ provider.Provider = &VSCProvider{}
var _ provider.ProviderWithFunctions = &VSCProvider{}

// VSCProvider defines the provider implementation.
type VSCProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string

	// dialer replaces the go-ldap dialer in unit tests.
	dialer ldapclient.Dialer
}

// VSCProviderModel describes the provider data model.
type VSCProviderModel struct {
	ConfigFile     types.String `tfsdk:"config_file"`
	SkipTLSVerify  types.Bool   `tfsdk:"skip_tls_verify"`
	StartTLS       types.Bool   `tfsdk:"start_tls"`
	TimeoutSeconds types.Int64  `tfsdk:"timeout_seconds"`
}

func (p *VSCProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "vsc"
	resp.Version = p.version
}

func (p *VSCProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The VSC provider reads account information from the KU Leuven (`kuleuven`) and " +
			"VSC (`vsc`) LDAP directories. Endpoints and bind credentials for both targets are read from a " +
			"private configuration file rather than from Terraform configuration.",
		Attributes: map[string]schema.Attribute{
			"config_file": schema.StringAttribute{
				MarkdownDescription: "Path to the configuration file holding the `kul_*` and `vsc_*` connection keys. " +
					"Defaults to `" + ldapclient.DefaultConfigFile + "`. " +
					"Can be set via the `" + EnvConfigFile + "` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Only intended for legacy endpoints with " +
					"self-signed certificates. Defaults to `false`. " +
					"Can be set via the `" + EnvSkipTLSVerify + "` environment variable.",
				Optional: true,
			},
			"start_tls": schema.BoolAttribute{
				MarkdownDescription: "Upgrade plain `ldap://` connections with StartTLS. Defaults to `false`. " +
					"Can be set via the `" + EnvStartTLS + "` environment variable.",
				Optional: true,
			},
			"timeout_seconds": schema.Int64Attribute{
				MarkdownDescription: "Timeout in seconds for connecting and for each directory request. Defaults to `30`. " +
					"Can be set via the `" + EnvTimeout + "` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
		},
	}
}

func (p *VSCProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data VSCProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring VSC provider", map[string]any{
		"version": p.version,
	})

	config := p.buildSessionConfig(&data)

	start := time.Now()
	store, err := ldapclient.LoadConfigStore(config.ConfigFile)
	if err != nil {
		tflog.Error(ctx, "Failed to load directory configuration", map[string]any{
			"config_file": ldapclient.ResolveConfigFile(config.ConfigFile),
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Load Directory Configuration",
			"The provider could not read the directory configuration file. "+
				"Set `config_file` or the "+EnvConfigFile+" environment variable to a readable file.\n\n"+
				"Configuration Error: "+err.Error(),
		)
		return
	}

	providerData := ldapclient.NewProviderData(store, config)
	if err := providerData.Validate(ctx); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Directory Configuration",
			"The directory configuration file does not define a usable target.\n\n"+
				"Configuration Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "VSC provider configured successfully", map[string]any{
		"config_file": store.Path(),
		"keys":        len(store.Keys()),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.DataSourceData = providerData
}

// configureLogging sets up persistent provider log fields.
func (p *VSCProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "vsc")
	ctx = tflog.SetField(ctx, "provider_version", p.version)

	tflog.Debug(ctx, "VSC provider logging configured")

	return ctx
}

// buildSessionConfig constructs the session settings from provider config and environment variables.
func (p *VSCProvider) buildSessionConfig(data *VSCProviderModel) ldapclient.SessionConfig {
	config := ldapclient.SessionConfig{
		ConfigFile:    p.getStringValue(data.ConfigFile, EnvConfigFile),
		SkipTLSVerify: p.getBoolValue(data.SkipTLSVerify, EnvSkipTLSVerify, false),
		StartTLS:      p.getBoolValue(data.StartTLS, EnvStartTLS, false),
		Dialer:        p.dialer,
	}

	if timeout := p.getInt64Value(data.TimeoutSeconds, EnvTimeout, 30); timeout > 0 {
		config.Timeout = time.Duration(timeout) * time.Second
	}

	return config
}

// Helper functions for configuration value resolution

func (p *VSCProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *VSCProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *VSCProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *VSCProvider) Resources(ctx context.Context) []func() resource.Resource {
	return nil
}

func (p *VSCProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewUserDataSource,
		NewUsersDataSource,
	}
}

func (p *VSCProvider) Functions(ctx context.Context) []func() function.Function {
	return []func() function.Function{
		NewUserFilterFunction,
		NewAccountFilterFunction,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &VSCProvider{
			version: version,
		}
	}
}
