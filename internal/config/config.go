package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/jgardner/reviewflow/internal/domain"
)

// Config represents the full application configuration.
type Config struct {
	Provider      string                    `yaml:"provider"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Connection    ConnectionConfig          `yaml:"connection"`
	HTTP          HTTPConfig                `yaml:"http"`
	Session       SessionConfig             `yaml:"session"`
	Source        SourceConfig              `yaml:"source"`
	Compliance    ComplianceConfig          `yaml:"compliance"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ProviderConfig configures a single remote analysis provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`

	// WireFormat selects the request/response shape: "chat-completions"
	// or "messages".
	WireFormat string `yaml:"wireFormat"`

	// Endpoints are tried in order until one answers.
	Endpoints []string `yaml:"endpoints"`

	// AuthHeader overrides the wire format's default credential header.
	AuthHeader string `yaml:"authHeader,omitempty"`

	// MinRequestInterval is the minimum spacing between requests to this
	// provider, e.g. "500ms".
	MinRequestInterval string `yaml:"minRequestInterval,omitempty"`
}

// ConnectionConfig selects how requests reach the provider.
type ConnectionConfig struct {
	Mode          string `yaml:"mode"` // direct, proxy, auto
	ProxyEndpoint string `yaml:"proxyEndpoint,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

// SessionConfig configures per-session behavior.
type SessionConfig struct {
	// PacingDelay is the pause between files, e.g. "500ms".
	PacingDelay string `yaml:"pacingDelay"`
}

// SourceConfig configures where review input comes from.
type SourceConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
	Branch        string `yaml:"branch"`
	MaxFiles      int    `yaml:"maxFiles"`
}

// ComplianceConfig points at the optional compliance document.
type ComplianceConfig struct {
	DocumentPath string `yaml:"documentPath"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// ActiveProvider resolves the configured provider name. An explicit
// selection wins; otherwise the single enabled provider is used.
func (c Config) ActiveProvider() (string, error) {
	if c.Provider != "" {
		if _, ok := c.Providers[c.Provider]; !ok {
			return "", fmt.Errorf("provider %q is not configured", c.Provider)
		}
		return c.Provider, nil
	}

	var enabled []string
	for name, p := range c.Providers {
		if p.Enabled {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)

	switch len(enabled) {
	case 0:
		return "", fmt.Errorf("no provider enabled")
	case 1:
		return enabled[0], nil
	default:
		return "", fmt.Errorf("multiple providers enabled (%v); set provider explicitly", enabled)
	}
}

// ProviderProfile builds the domain profile for the named provider.
func (c Config) ProviderProfile(name string) (domain.ProviderProfile, error) {
	p, ok := c.Providers[name]
	if !ok {
		return domain.ProviderProfile{}, fmt.Errorf("provider %q is not configured", name)
	}
	if p.WireFormat != domain.WireFormatChatCompletions && p.WireFormat != domain.WireFormatMessages {
		return domain.ProviderProfile{}, fmt.Errorf("provider %q: unknown wire format %q", name, p.WireFormat)
	}
	if len(p.Endpoints) == 0 {
		return domain.ProviderProfile{}, fmt.Errorf("provider %q: no endpoints configured", name)
	}

	var interval time.Duration
	if p.MinRequestInterval != "" {
		var err error
		interval, err = time.ParseDuration(p.MinRequestInterval)
		if err != nil {
			return domain.ProviderProfile{}, fmt.Errorf("provider %q: parse minRequestInterval: %w", name, err)
		}
	}

	return domain.ProviderProfile{
		ProviderID:         name,
		WireFormat:         p.WireFormat,
		EndpointCandidates: append([]string{}, p.Endpoints...),
		AuthHeaderName:     p.AuthHeader,
		Model:              p.Model,
		MinRequestInterval: interval,
	}, nil
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	if overlay.Provider != "" {
		result.Provider = overlay.Provider
	}
	result.Connection = chooseConnection(base.Connection, overlay.Connection)
	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Session = chooseSession(base.Session, overlay.Session)
	result.Source = chooseSource(base.Source, overlay.Source)
	result.Compliance = chooseCompliance(base.Compliance, overlay.Compliance)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		if existing, ok := result[key]; ok {
			result[key] = chooseProvider(existing, value)
		} else {
			result[key] = value
		}
	}
	return result
}

func chooseProvider(base, overlay ProviderConfig) ProviderConfig {
	result := base
	if overlay.Enabled {
		result.Enabled = true
	}
	if overlay.Model != "" {
		result.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		result.APIKey = overlay.APIKey
	}
	if overlay.WireFormat != "" {
		result.WireFormat = overlay.WireFormat
	}
	if len(overlay.Endpoints) > 0 {
		result.Endpoints = overlay.Endpoints
	}
	if overlay.AuthHeader != "" {
		result.AuthHeader = overlay.AuthHeader
	}
	if overlay.MinRequestInterval != "" {
		result.MinRequestInterval = overlay.MinRequestInterval
	}
	return result
}

func chooseConnection(base, overlay ConnectionConfig) ConnectionConfig {
	result := base
	if overlay.Mode != "" {
		result.Mode = overlay.Mode
	}
	if overlay.ProxyEndpoint != "" {
		result.ProxyEndpoint = overlay.ProxyEndpoint
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" {
		return overlay
	}
	return base
}

func chooseSession(base, overlay SessionConfig) SessionConfig {
	if overlay.PacingDelay != "" {
		return overlay
	}
	return base
}

func chooseSource(base, overlay SourceConfig) SourceConfig {
	result := base
	if overlay.RepositoryDir != "" {
		result.RepositoryDir = overlay.RepositoryDir
	}
	if overlay.Branch != "" {
		result.Branch = overlay.Branch
	}
	if overlay.MaxFiles != 0 {
		result.MaxFiles = overlay.MaxFiles
	}
	return result
}

func chooseCompliance(base, overlay ComplianceConfig) ComplianceConfig {
	if overlay.DocumentPath != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
