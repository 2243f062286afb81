package ldap

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ProviderData carries the loaded configuration store and session settings
// to Terraform data sources. Sessions are created per read and never shared.
type ProviderData struct {
	Store  *ConfigStore  // Loaded once by the provider
	Config SessionConfig // Transport settings applied to every session
}

// NewProviderData creates a new provider data wrapper.
func NewProviderData(store *ConfigStore, config SessionConfig) *ProviderData {
	return &ProviderData{
		Store:  store,
		Config: config,
	}
}

// Validate ensures the store is loaded and holds complete parameters for at
// least one target.
func (pd *ProviderData) Validate(ctx context.Context) error {
	if pd.Store == nil {
		return NewConfigurationError("validate_config", "configuration store is not loaded", nil)
	}

	targets := pd.ConfiguredTargets()
	if len(targets) == 0 {
		return NewConfigurationError("validate_config",
			fmt.Sprintf("no target has complete connection parameters in %s", pd.Store.Path()), nil)
	}

	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.String())
	}

	tflog.Debug(ctx, "Provider data validation successful", map[string]any{
		"config_file": pd.Store.Path(),
		"targets":     names,
	})

	return nil
}

// ConfiguredTargets returns the targets whose parameters resolve cleanly.
func (pd *ProviderData) ConfiguredTargets() []Target {
	if pd.Store == nil {
		return nil
	}

	var targets []Target
	for _, t := range []Target{TargetKULeuven, TargetVSC} {
		if _, err := pd.Store.ConnectionParams(t); err == nil {
			targets = append(targets, t)
		}
	}
	return targets
}

// NewSession creates an unopened session for target.
func (pd *ProviderData) NewSession(ctx context.Context, target Target) (*Session, error) {
	if pd.Store == nil {
		return nil, withTarget(NewConfigurationError("new_session", "configuration store is not loaded", nil), target)
	}
	return NewSessionFromStore(ctx, target, pd.Store, &pd.Config)
}

// WithSession opens a session for target, runs fn and closes the session.
func (pd *ProviderData) WithSession(ctx context.Context, target Target, fn func(*Session) error) error {
	s, err := pd.NewSession(ctx, target)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.Run(ctx, fn)

	tflog.Trace(ctx, "Provider session finished", map[string]any{
		"target":      target.String(),
		"session_id":  s.ID(),
		"duration_ms": time.Since(start).Milliseconds(),
		"failed":      err != nil,
	})

	return err
}
