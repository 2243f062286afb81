package provider

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestConfigFile = "VSC_TEST_CONFIG"
	EnvTestTarget     = "VSC_TEST_TARGET"
	EnvTestUID        = "VSC_TEST_UID"
	EnvTestFilter     = "VSC_TEST_FILTER"

	// Default values for testing.
	DefaultTestTarget = "vsc"
	DefaultTestFilter = "(status=active)"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	ConfigFile string
	Target     string
	UID        string
	Filter     string
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	return &TestConfig{
		ConfigFile: os.Getenv(EnvTestConfigFile),
		Target:     getEnvWithDefault(EnvTestTarget, DefaultTestTarget),
		UID:        os.Getenv(EnvTestUID),
		Filter:     getEnvWithDefault(EnvTestFilter, DefaultTestFilter),
	}
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig validates the acceptance test environment.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.ConfigFile == "" {
		t.Skipf("Skipping test: %s must point to a directory configuration file", EnvTestConfigFile)
	}

	if _, err := os.Stat(config.ConfigFile); err != nil {
		t.Skipf("Skipping test: %s is not readable: %s", EnvTestConfigFile, err)
	}

	if config.UID == "" {
		t.Skipf("Skipping test: %s must be set to an existing account", EnvTestUID)
	}

	return config
}

// TestProviderConfig generates provider configuration for tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"vsc\" {\n")
	providerConfig.WriteString(fmt.Sprintf("  config_file = %q\n", config.ConfigFile))
	providerConfig.WriteString("}\n")
	return providerConfig.String()
}

// TestCheckListNotEmpty verifies that a computed list attribute holds at least one element.
func TestCheckListNotEmpty(resourceName, attribute string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("not found: %s", resourceName)
		}

		raw, ok := rs.Primary.Attributes[attribute+".#"]
		if !ok {
			return fmt.Errorf("%s: attribute %s is not set", resourceName, attribute)
		}

		count, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid length for %s: %w", resourceName, attribute, err)
		}
		if count == 0 {
			return fmt.Errorf("%s: expected %s to be non-empty", resourceName, attribute)
		}
		return nil
	}
}

// getEnvWithDefault returns environment variable value or default.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
