// Package config loads the tool's settings from ~/.config/dayplan/.
// Everything has a working default; the config file is optional.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the resolved runtime configuration.
type Config struct {
	DataDir      string
	UserID       string
	Model        string
	APIKey       string
	Temperature  float64
	Attempts     int
	RetryDelay   time.Duration
	Affirmations []string // extra plan-acceptance phrases
}

type tomlConfig struct {
	DataDir      string   `toml:"data_dir"`
	UserID       string   `toml:"user_id"`
	Model        string   `toml:"model"`
	Temperature  float64  `toml:"temperature"`
	Attempts     int      `toml:"retry_attempts"`
	RetryDelayMS int      `toml:"retry_delay_ms"`
	Affirmations []string `toml:"affirmations"`
}

// Load reads config from ~/.config/dayplan/config.toml, falling back to
// defaults when the file or any key is absent. The API key comes from
// the environment, never from the file.
func Load() (*Config, error) {
	cfg := &Config{
		UserID:      "default",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		Attempts:    3,
		RetryDelay:  time.Second,
	}

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.DataDir = filepath.Join(home, ".local", "share", "dayplan")

		tomlPath := filepath.Join(home, ".config", "dayplan", "config.toml")
		if _, err := os.Stat(tomlPath); err == nil {
			var tc tomlConfig
			if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
				return nil, fmt.Errorf("reading %s: %w", tomlPath, err)
			}
			cfg.apply(&tc)
		}
	}

	if key := os.Getenv("DAYPLAN_OPENAI_API_KEY"); key != "" {
		cfg.APIKey = key
	} else {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

func (c *Config) apply(tc *tomlConfig) {
	if tc.DataDir != "" {
		c.DataDir = expandHome(tc.DataDir)
	}
	if tc.UserID != "" {
		c.UserID = tc.UserID
	}
	if tc.Model != "" {
		c.Model = tc.Model
	}
	if tc.Temperature > 0 {
		c.Temperature = tc.Temperature
	}
	if tc.Attempts > 0 {
		c.Attempts = tc.Attempts
	}
	if tc.RetryDelayMS > 0 {
		c.RetryDelay = time.Duration(tc.RetryDelayMS) * time.Millisecond
	}
	c.Affirmations = tc.Affirmations
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
