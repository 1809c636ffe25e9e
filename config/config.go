package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/boardpilot/boardpilot/errors"
	"gopkg.in/yaml.v3"
)

// LoopSettings bound a single session turn.
type LoopSettings struct {
	// MaxIterations caps the number of model calls per turn.
	MaxIterations int `yaml:"max_iterations"`
	// PacingDelayMS is the courtesy delay between non-terminal cycles.
	PacingDelayMS int `yaml:"pacing_delay_ms"`
}

// ToolSettings bound outbound tool calls.
type ToolSettings struct {
	// HTTPTimeoutSec is the overall request timeout for tool HTTP clients.
	HTTPTimeoutSec int `yaml:"http_timeout_sec"`
	// TimeLookupCeilingSec is the extra hard deadline applied to the time
	// lookup, whose upstream is an order of magnitude slower than the rest.
	TimeLookupCeilingSec int `yaml:"time_lookup_ceiling_sec"`
}

// BoardSettings locate the collaboration board's REST API.
type BoardSettings struct {
	BaseURL string `yaml:"base_url"`
	// HTTPTimeoutSec bounds activity posts to the board, independent of the
	// tool clients' timeout.
	HTTPTimeoutSec int `yaml:"http_timeout_sec"`
}

// WebhookSettings configure the inbound event source.
type WebhookSettings struct {
	Listen string `yaml:"listen"`
	// SecretEnv names the environment variable holding the HMAC signing
	// secret. The secret itself never appears in config files.
	SecretEnv string `yaml:"secret_env"`
	// AllowedBoards is a list of doublestar patterns; an inbound event whose
	// board id matches none of them is rejected. Empty means allow all.
	AllowedBoards []string `yaml:"allowed_boards"`
}

// OAuthSettings configure the account-scoped credential store.
type OAuthSettings struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`
	// TokenStore is the path of the JSON file holding per-account tokens.
	TokenStore string `yaml:"token_store"`
}

type Config struct {
	LLMClient string          `yaml:"llm"`
	Model     string          `yaml:"model"`
	LogLevel  string          `yaml:"log_level"`
	Loop      LoopSettings    `yaml:"loop"`
	Tools     ToolSettings    `yaml:"tools"`
	Board     BoardSettings   `yaml:"board"`
	Webhook   WebhookSettings `yaml:"webhook"`
	OAuth     OAuthSettings   `yaml:"oauth"`
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".boardpilot", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".boardpilot", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML. This provides a simple
	// merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) applyDefaults() {
	if c.Loop.MaxIterations <= 0 {
		c.Loop.MaxIterations = 10
	}
	if c.Loop.PacingDelayMS <= 0 {
		c.Loop.PacingDelayMS = 1000
	}
	if c.Tools.HTTPTimeoutSec <= 0 {
		c.Tools.HTTPTimeoutSec = 10
	}
	if c.Tools.TimeLookupCeilingSec <= 0 {
		c.Tools.TimeLookupCeilingSec = 5
	}
	if c.Board.HTTPTimeoutSec <= 0 {
		c.Board.HTTPTimeoutSec = 10
	}
	if c.Webhook.Listen == "" {
		c.Webhook.Listen = ":8080"
	}
	if c.Webhook.SecretEnv == "" {
		c.Webhook.SecretEnv = "BOARDPILOT_WEBHOOK_SECRET"
	}
	if c.OAuth.TokenStore == "" {
		c.OAuth.TokenStore = filepath.Join(".boardpilot", "tokens.json")
	}
}

// PacingDelay returns the inter-cycle delay as a duration.
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.Loop.PacingDelayMS) * time.Millisecond
}

// ToolHTTPTimeout returns the tool client timeout as a duration.
func (c *Config) ToolHTTPTimeout() time.Duration {
	return time.Duration(c.Tools.HTTPTimeoutSec) * time.Second
}

// BoardHTTPTimeout returns the board client timeout as a duration.
func (c *Config) BoardHTTPTimeout() time.Duration {
	return time.Duration(c.Board.HTTPTimeoutSec) * time.Second
}

// TimeLookupCeiling returns the time lookup's hard deadline as a duration.
func (c *Config) TimeLookupCeiling() time.Duration {
	return time.Duration(c.Tools.TimeLookupCeilingSec) * time.Second
}

// BoardAllowed reports whether the given board id matches the allowlist.
// An empty allowlist admits every board. Invalid patterns are treated as
// non-matching rather than failing the check outright.
func (c *Config) BoardAllowed(boardID string) bool {
	if len(c.Webhook.AllowedBoards) == 0 {
		return true
	}
	for _, pattern := range c.Webhook.AllowedBoards {
		match, err := doublestar.Match(pattern, boardID)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}
