package provider_test

import (
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/providerserver"

	this "github.com/isometry/terraform-provider-vsc/internal/provider"
)

// TestProviderMetadata tests the provider metadata.
func TestProviderMetadata(t *testing.T) {
	p := this.New("test")()

	req := provider.MetadataRequest{}
	resp := &provider.MetadataResponse{}

	p.Metadata(t.Context(), req, resp)

	if resp.TypeName != "vsc" {
		t.Errorf("Expected TypeName 'vsc', got %s", resp.TypeName)
	}

	if resp.Version != "test" {
		t.Errorf("Expected Version 'test', got %s", resp.Version)
	}
}

// TestProviderSchema tests the provider schema.
func TestProviderSchema(t *testing.T) {
	p := this.New("test")()

	req := provider.SchemaRequest{}
	resp := &provider.SchemaResponse{}

	p.Schema(t.Context(), req, resp)

	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema creation failed: %v", resp.Diagnostics)
	}

	expectedAttributes := []string{
		"config_file", "skip_tls_verify", "start_tls", "timeout_seconds",
	}

	for _, attr := range expectedAttributes {
		a, exists := resp.Schema.Attributes[attr]
		if !exists {
			t.Errorf("Expected attribute %s not found in schema", attr)
			continue
		}
		if a.IsRequired() {
			t.Errorf("Attribute %s should be optional", attr)
		}
	}
}

// TestProviderResources tests that the provider exposes no managed resources.
func TestProviderResources(t *testing.T) {
	p := this.New("test")()

	if resources := p.Resources(t.Context()); len(resources) != 0 {
		t.Errorf("Expected 0 resources, got %d", len(resources))
	}
}

// TestProviderDataSources tests the provider data sources.
func TestProviderDataSources(t *testing.T) {
	p := this.New("test")()

	dataSources := p.DataSources(t.Context())

	expected := map[string]bool{
		"vsc_user":  false,
		"vsc_users": false,
	}

	if len(dataSources) != len(expected) {
		t.Errorf("Expected %d data sources, got %d", len(expected), len(dataSources))
	}

	for _, factory := range dataSources {
		ds := factory()
		resp := &datasource.MetadataResponse{}
		ds.Metadata(t.Context(), datasource.MetadataRequest{ProviderTypeName: "vsc"}, resp)

		if _, ok := expected[resp.TypeName]; !ok {
			t.Errorf("Unexpected data source %s", resp.TypeName)
			continue
		}
		expected[resp.TypeName] = true
	}

	for name, seen := range expected {
		if !seen {
			t.Errorf("Data source %s not registered", name)
		}
	}
}

// TestProviderFunctions tests the provider functions.
func TestProviderFunctions(t *testing.T) {
	p, ok := this.New("test")().(provider.ProviderWithFunctions)
	if !ok {
		t.Fatal("Provider does not implement ProviderWithFunctions")
	}

	var names []string
	for _, factory := range p.Functions(t.Context()) {
		resp := &function.MetadataResponse{}
		factory().Metadata(t.Context(), function.MetadataRequest{}, resp)
		names = append(names, resp.Name)
	}

	if strings.Join(names, ",") != "user_filter,account_filter" {
		t.Errorf("Unexpected functions: %v", names)
	}
}

// TestNewProvider tests the New provider function.
func TestNewProvider(t *testing.T) {
	testCases := []struct {
		name    string
		version string
	}{
		{
			name:    "test version",
			version: "test",
		},
		{
			name:    "dev version",
			version: "dev",
		},
		{
			name:    "release version",
			version: "1.0.0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			providerFunc := this.New(tc.version)
			if providerFunc == nil {
				t.Fatal("New() returned nil")
			}

			p := providerFunc()
			if _, ok := p.(*this.VSCProvider); !ok {
				t.Fatal("Provider is not of type *VSCProvider")
			}

			resp := &provider.MetadataResponse{}
			p.Metadata(t.Context(), provider.MetadataRequest{}, resp)
			if resp.Version != tc.version {
				t.Errorf("Expected version %s, got %s", tc.version, resp.Version)
			}
		})
	}
}

// TestProviderServer tests provider server creation.
func TestProviderServer(t *testing.T) {
	serverFactory := providerserver.NewProtocol6WithError(this.New("test")())

	server, err := serverFactory()
	if err != nil {
		t.Fatalf("Failed to create provider server: %v", err)
	}

	if server == nil {
		t.Fatal("Provider server is nil")
	}
}

// TestProviderEnvironmentVariables tests that environment variables are documented.
func TestProviderEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"config_file":     this.EnvConfigFile,
		"skip_tls_verify": this.EnvSkipTLSVerify,
		"start_tls":       this.EnvStartTLS,
		"timeout_seconds": this.EnvTimeout,
	}

	p := this.New("test")()
	resp := &provider.SchemaResponse{}
	p.Schema(t.Context(), provider.SchemaRequest{}, resp)

	for attr, envVar := range envVars {
		a, ok := resp.Schema.Attributes[attr]
		if !ok {
			t.Errorf("Attribute %s not found", attr)
			continue
		}
		if !strings.Contains(a.GetMarkdownDescription(), envVar) {
			t.Errorf("Attribute %s does not document %s", attr, envVar)
		}
	}
}
