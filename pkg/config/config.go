// Package config loads gosanction settings from an optional YAML file and
// GOSANCTION_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/gosanction/pkg/logging"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/workflow"
)

// EnvPrefix prefixes every environment override, e.g. GOSANCTION_DATABASE_PATH.
const EnvPrefix = "gosanction"

var ErrInvalidConfig = errors.New("config: invalid")

// ServerConfig is one entry of the server catalog.
type ServerConfig struct {
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles,omitempty"`
}

// Config holds process configuration. Durations accept Go syntax ("90s", "72h").
// A zero TTL disables expiry.
type Config struct {
	DatabasePath     string         `yaml:"databasePath"   split_words:"true"`
	LogLevel         string         `yaml:"logLevel"       split_words:"true"`
	LogFormat        string         `yaml:"logFormat"      split_words:"true"`
	MetricsAddr      string         `yaml:"metricsAddr"    split_words:"true"`
	GatewayTimeout   time.Duration  `yaml:"gatewayTimeout" split_words:"true"`
	PendingTTL       time.Duration  `yaml:"pendingTTL"     split_words:"true"`
	CodeTTL          time.Duration  `yaml:"codeTTL"        split_words:"true"`
	PurgeInterval    time.Duration  `yaml:"purgeInterval"  split_words:"true"`
	BackupPassphrase string         `yaml:"-"              split_words:"true"`
	Servers          []ServerConfig `yaml:"servers"        ignored:"true"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:   "gosanction.db",
		LogLevel:       "info",
		LogFormat:      "text",
		MetricsAddr:    ":9602",
		GatewayTimeout: workflow.DefaultGatewayTimeout,
		PendingTTL:     workflow.DefaultPendingTTL,
		CodeTTL:        workflow.DefaultCodeTTL,
		PurgeInterval:  time.Minute,
		Servers: []ServerConfig{
			{Name: string(model.Server54)},
			{Name: string(model.Server56)},
			{Name: string(model.Server58)},
			{Name: string(model.Server62)},
		},
	}
}

// Load reads path, if not empty, over the defaults and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		buf, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("%w: databasePath is empty", ErrInvalidConfig)
	}
	if err := logging.Validate(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := logging.ValidateFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for name, d := range map[string]time.Duration{
		"gatewayTimeout": c.GatewayTimeout,
		"pendingTTL":     c.PendingTTL,
		"codeTTL":        c.CodeTTL,
		"purgeInterval":  c.PurgeInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidConfig, name)
		}
	}
	if len(c.Servers) == 0 {
		return fmt.Errorf("%w: no servers configured", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("%w: server without name", ErrInvalidConfig)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate server %q", ErrInvalidConfig, name)
		}
		seen[name] = true
	}
	return nil
}

// Catalog builds the server catalog in configuration order.
func (c *Config) Catalog() *model.Catalog {
	infos := make([]model.ServerInfo, len(c.Servers))
	for i, s := range c.Servers {
		infos[i] = model.ServerInfo{Name: model.Server(strings.TrimSpace(s.Name)), Roles: s.Roles}
	}
	return model.NewCatalog(infos...)
}

// WorkflowOptions maps the configuration onto workflow.Options.
func (c *Config) WorkflowOptions() workflow.Options {
	return workflow.Options{
		GatewayTimeout: c.GatewayTimeout,
		PendingTTL:     disabledIfZero(c.PendingTTL),
		CodeTTL:        disabledIfZero(c.CodeTTL),
	}
}

// workflow.Options treats zero as "use the default".
func disabledIfZero(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}
