package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig selects the row store backend.
type DatabaseConfig struct {
	// Driver is one of "sqlite", "postgres" or "mysql".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the driver-specific data source name. For sqlite it is a file path.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// AIConfig holds settings for the chat-completion integrations.
type AIConfig struct {
	OpenAIModel     string `mapstructure:"openai_model" yaml:"openai_model"`
	PerplexityModel string `mapstructure:"perplexity_model" yaml:"perplexity_model"`
	MaxTokens       int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// AuthConfig holds settings for verifying provider-issued access tokens.
type AuthConfig struct {
	// JWTSecretEnv names the environment variable holding the HS256 secret.
	JWTSecretEnv string `mapstructure:"jwt_secret_env" yaml:"jwt_secret_env"`
}

// OrderingConfig tunes how position rewrites are written.
type OrderingConfig struct {
	// VersionCheck rejects position writes whose observed row version is stale
	// instead of silently overwriting them.
	VersionCheck bool `mapstructure:"version_check" yaml:"version_check"`

	// AtomicBatches writes a full reorder in one transaction when the store
	// supports it.
	AtomicBatches bool `mapstructure:"atomic_batches" yaml:"atomic_batches"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Ordering OrderingConfig `mapstructure:"ordering" yaml:"ordering"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/kaizen/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "kaizen", "config.yaml")
}

// DefaultDatabasePath returns the default sqlite file location.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "kaizen.db")
	}
	return filepath.Join(home, ".config", "kaizen", "kaizen.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    DefaultDatabasePath(),
		},
		AI: AIConfig{
			OpenAIModel:     "gpt-3.5-turbo",
			PerplexityModel: "sonar-pro",
			MaxTokens:       1000,
			TimeoutSec:      60,
		},
		Auth: AuthConfig{
			JWTSecretEnv: "KAIZEN_JWT_SECRET",
		},
		Ordering: OrderingConfig{
			VersionCheck:  false,
			AtomicBatches: true,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. Values can
// be overridden with KAIZEN_* environment variables (e.g. KAIZEN_DATABASE_DRIVER).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("kaizen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("ai.openai_model", def.AI.OpenAIModel)
	v.SetDefault("ai.perplexity_model", def.AI.PerplexityModel)
	v.SetDefault("ai.max_tokens", def.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", def.AI.TimeoutSec)
	v.SetDefault("auth.jwt_secret_env", def.Auth.JWTSecretEnv)
	v.SetDefault("ordering.version_check", def.Ordering.VersionCheck)
	v.SetDefault("ordering.atomic_batches", def.Ordering.AtomicBatches)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration names a supported backend.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database dsn must not be empty")
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_tokens must be positive")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("ai", cfg.AI)
	v.Set("auth", cfg.Auth)
	v.Set("ordering", cfg.Ordering)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
