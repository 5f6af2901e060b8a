package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxMessages        = 100
	defaultUserTextLimit      = 300
	defaultAssistantKeepLimit = 600
	defaultDisplayTextLimit   = 300
	defaultMaxTools           = 4
	defaultCommandPreview     = 80
	defaultLogLevel           = "warn"

	defaultDigestModel      = "claude-3-haiku-20240307"
	defaultDigestMaxTokens  = 500
	defaultDigestMaxRetries = 2
	defaultDigestTimeout    = 30 * time.Second
)

// Config holds session-catchup configuration.
type Config struct {
	SessionsRoot  string   `toml:"sessions_root" yaml:"sessions_root"`
	PlanningFiles []string `toml:"planning_files" yaml:"planning_files"`

	MaxMessages        int `toml:"max_messages" yaml:"max_messages"`
	UserTextLimit      int `toml:"user_text_limit" yaml:"user_text_limit"`
	AssistantTextLimit int `toml:"assistant_text_limit" yaml:"assistant_text_limit"`
	DisplayTextLimit   int `toml:"display_text_limit" yaml:"display_text_limit"`
	MaxTools           int `toml:"max_tools" yaml:"max_tools"`
	CommandPreview     int `toml:"command_preview" yaml:"command_preview"`

	LogLevel string `toml:"log_level" yaml:"log_level"`

	Digest DigestConfig `toml:"digest" yaml:"digest"`
}

// DigestConfig controls the optional LLM digest of recovered context.
type DigestConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Model      string `toml:"model" yaml:"model"`
	MaxTokens  int    `toml:"max_tokens" yaml:"max_tokens"`
	MaxRetries int    `toml:"max_retries" yaml:"max_retries"`
	// Timeout is a Go duration string such as "30s".
	Timeout string `toml:"timeout" yaml:"timeout"`
	APIKey  string `toml:"api_key" yaml:"api_key"`
}

// TimeoutDuration parses Timeout, falling back to the default.
func (d DigestConfig) TimeoutDuration() time.Duration {
	if parsed, err := time.ParseDuration(d.Timeout); err == nil && parsed > 0 {
		return parsed
	}
	return defaultDigestTimeout
}

// Default returns the default configuration for a user whose home
// directory is home.
func Default(home string) *Config {
	return &Config{
		SessionsRoot:       filepath.Join(home, ".pi", "agent", "sessions"),
		PlanningFiles:      []string{"task_plan.md", "progress.md", "findings.md"},
		MaxMessages:        defaultMaxMessages,
		UserTextLimit:      defaultUserTextLimit,
		AssistantTextLimit: defaultAssistantKeepLimit,
		DisplayTextLimit:   defaultDisplayTextLimit,
		MaxTools:           defaultMaxTools,
		CommandPreview:     defaultCommandPreview,
		LogLevel:           defaultLogLevel,
		Digest: DigestConfig{
			Model:      defaultDigestModel,
			MaxTokens:  defaultDigestMaxTokens,
			MaxRetries: defaultDigestMaxRetries,
			Timeout:    defaultDigestTimeout.String(),
		},
	}
}

// Load builds the configuration from defaults, an optional config file and
// SESSION_CATCHUP_* environment variables, in that order of precedence.
// path may be empty; SESSION_CATCHUP_CONFIG or
// ~/.config/session-catchup/config.toml is then used when present.
// A file that cannot be read or parsed is reported, and the remaining
// layers still apply.
func Load(path, home string) (*Config, error) {
	cfg := Default(home)

	var fileErr error
	if path == "" {
		path = envOr(filepath.Join(home, ".config", "session-catchup", "config.toml"), "SESSION_CATCHUP_CONFIG")
	}
	if err := cfg.mergeFile(expandHome(path, home)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fileErr = err
	}

	cfg.applyEnv()
	cfg.SessionsRoot = expandHome(cfg.SessionsRoot, home)
	applyDefaults(cfg)
	return cfg, fileErr
}

// LoadFromPath reads a single config file on top of the defaults, without
// consulting the environment.
func LoadFromPath(path, home string) (*Config, error) {
	cfg := Default(home)
	if err := cfg.mergeFile(path); err != nil {
		return cfg, err
	}
	cfg.SessionsRoot = expandHome(cfg.SessionsRoot, home)
	applyDefaults(cfg)
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyEnv() {
	overrideString(&c.SessionsRoot, "SESSION_CATCHUP_SESSIONS_ROOT")
	overrideList(&c.PlanningFiles, "SESSION_CATCHUP_PLANNING_FILES")
	overrideInt(&c.MaxMessages, "SESSION_CATCHUP_MAX_MESSAGES")
	overrideString(&c.LogLevel, "SESSION_CATCHUP_LOG_LEVEL")

	overrideBool(&c.Digest.Enabled, "SESSION_CATCHUP_DIGEST")
	overrideString(&c.Digest.Model, "SESSION_CATCHUP_DIGEST_MODEL")
	overrideString(&c.Digest.Timeout, "SESSION_CATCHUP_DIGEST_TIMEOUT")
}

func applyDefaults(cfg *Config) {
	if len(cfg.PlanningFiles) == 0 {
		cfg.PlanningFiles = Default("").PlanningFiles
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}
	if cfg.UserTextLimit <= 0 {
		cfg.UserTextLimit = defaultUserTextLimit
	}
	if cfg.AssistantTextLimit <= 0 {
		cfg.AssistantTextLimit = defaultAssistantKeepLimit
	}
	if cfg.DisplayTextLimit <= 0 {
		cfg.DisplayTextLimit = defaultDisplayTextLimit
	}
	if cfg.MaxTools <= 0 {
		cfg.MaxTools = defaultMaxTools
	}
	if cfg.CommandPreview <= 0 {
		cfg.CommandPreview = defaultCommandPreview
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.Digest.Model == "" {
		cfg.Digest.Model = defaultDigestModel
	}
	if cfg.Digest.MaxTokens <= 0 {
		cfg.Digest.MaxTokens = defaultDigestMaxTokens
	}
	if cfg.Digest.MaxRetries < 0 {
		cfg.Digest.MaxRetries = 0
	}
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func envOr(current, key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return current
}

func overrideString(dest *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val
	}
}

func overrideList(dest *[]string, key string) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		*dest = items
	}
}

func overrideBool(dest *bool, key string) {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "1", "true", "yes", "y", "on":
			*dest = true
		case "0", "false", "no", "n", "off":
			*dest = false
		}
	}
}

func overrideInt(dest *int, key string) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dest = parsed
		}
	}
}
