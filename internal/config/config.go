// Package config loads the YAML settings file, overlays .env and the
// environment, and writes settings back.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appDir   = "cybercog"
	fileName = "config.yaml"

	// DeclinedAPIKey is stored when the user skipped the key prompt.
	DeclinedAPIKey = "NONE"
)

// Render modes.
const (
	RenderStyled   = "styled"
	RenderMarkdown = "markdown"
	RenderPlain    = "plain"
)

// Config keys written by SetValue.
const (
	KeyUsername = "username"
	KeyAPIKey   = "anthropic_api_key"
)

type Config struct {
	Username           string `yaml:"username,omitempty"`
	AnthropicAPIKey    string `yaml:"anthropic_api_key,omitempty"`
	Model              string `yaml:"model"`
	MaxTokens          int    `yaml:"max_tokens"`
	MaxCalls           int    `yaml:"max_calls"`
	ToolsDir           string `yaml:"tools_dir"`
	InputHistoryFile   string `yaml:"input_history_file"`
	LogFile            string `yaml:"log_file"`
	LogLevel           string `yaml:"log_level"`
	Render             string `yaml:"render"`
	ReadRoot           string `yaml:"read_root,omitempty"`
	WriteRoot          string `yaml:"write_root,omitempty"`
	HistoryTokenBudget int    `yaml:"history_token_budget"`
	BlockingWorkers    int    `yaml:"blocking_workers"`
	VerifyAPIKey       bool   `yaml:"verify_api_key"`
	Observe            bool   `yaml:"observe"`
	EventsDir          string `yaml:"events_dir"`
}

// Dir is the per-user settings directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// DefaultPath is the settings file inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Default returns the baseline settings with files placed under dir.
func Default(dir string) Config {
	return Config{
		Model:            "claude-3-opus-20240229",
		MaxTokens:        1024,
		MaxCalls:         6,
		ToolsDir:         filepath.Join(dir, "tools"),
		InputHistoryFile: filepath.Join(dir, "cybercog_history"),
		LogFile:          filepath.Join(dir, "logs", "cybercog.log"),
		LogLevel:         "info",
		Render:           RenderStyled,
		BlockingWorkers:  4,
		VerifyAPIKey:     true,
		EventsDir:        filepath.Join(dir, "events"),
	}
}

// Load reads path over the defaults, then .env and the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg = Normalize(cfg)
	return cfg, cfg.Validate()
}

// ApplyEnv overlays the supported environment variables.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("ANTHROPIC_API_KEY"); ok && strings.TrimSpace(v) != "" {
		cfg.AnthropicAPIKey = v
	}
	if v, ok := lookup("CYBERCOG_MODEL"); ok && strings.TrimSpace(v) != "" {
		cfg.Model = v
	}
	if v, ok := lookup("CYBERCOG_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("CYBERCOG_OBSERVE"); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CYBERCOG_OBSERVE=%q: %w", v, err)
		}
		cfg.Observe = on
	}
	return nil
}

// Normalize trims strings and clamps counts to at least one.
func Normalize(cfg Config) Config {
	for _, s := range []*string{
		&cfg.Username, &cfg.AnthropicAPIKey, &cfg.Model, &cfg.ToolsDir,
		&cfg.InputHistoryFile, &cfg.LogFile, &cfg.LogLevel, &cfg.Render,
		&cfg.ReadRoot, &cfg.WriteRoot, &cfg.EventsDir,
	} {
		*s = strings.TrimSpace(*s)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Render = strings.ToLower(cfg.Render)
	if cfg.Render == "" {
		cfg.Render = RenderStyled
	}
	cfg.MaxCalls = max(cfg.MaxCalls, 1)
	cfg.MaxTokens = max(cfg.MaxTokens, 1)
	cfg.BlockingWorkers = max(cfg.BlockingWorkers, 1)
	cfg.HistoryTokenBudget = max(cfg.HistoryTokenBudget, 0)
	return cfg
}

func (c Config) Validate() error {
	switch c.Render {
	case RenderStyled, RenderMarkdown, RenderPlain:
	default:
		return fmt.Errorf("render %q: want %s, %s or %s", c.Render, RenderStyled, RenderMarkdown, RenderPlain)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DefaultUsername derives a prompt name from the OS account.
func DefaultUsername() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "anonymous"
	}
	name := u.Username
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-")
	if name == "" {
		return "anonymous"
	}
	return name
}
