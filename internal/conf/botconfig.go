package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/acheronbot/acheron/internal/biz/domain"
)

// BotConfig is the runtime bot configuration.
// It lives in a YAML file that is re-read before every inbound event, so
// edits (by hand or by owner commands) take effect without a restart.
type BotConfig struct {
	Prefix          string `yaml:"prefix"`
	Owner           string `yaml:"owner"`
	ChatMode        bool   `yaml:"chat_mode"`
	TypingDelayMs   int    `yaml:"typing_delay_ms"`
	Mood            string `yaml:"mood"`
	MemoryPruneDays int    `yaml:"memory_prune_days"`
}

// DefaultBotConfig returns the built-in defaults, also used as the
// fallback when the config file cannot be read
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		Prefix:          "!",
		Owner:           "",
		ChatMode:        false,
		TypingDelayMs:   800,
		Mood:            string(domain.MoodCalm),
		MemoryPruneDays: 30,
	}
}

// TypingDelay returns the chat-mode typing delay as a duration
func (c *BotConfig) TypingDelay() time.Duration {
	if c.TypingDelayMs <= 0 {
		return 800 * time.Millisecond
	}
	return time.Duration(c.TypingDelayMs) * time.Millisecond
}

// EffectiveMood returns the configured mood, falling back to calm
// for unknown values
func (c *BotConfig) EffectiveMood() domain.Mood {
	m := domain.Mood(c.Mood)
	if !m.IsValid() {
		return domain.MoodCalm
	}
	return m
}

// RetentionWindow returns the user-record retention window used by pruning
func (c *BotConfig) RetentionWindow() time.Duration {
	days := c.MemoryPruneDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// BotConfigLoader loads and saves the runtime bot configuration
type BotConfigLoader struct {
	Path string
}

// NewBotConfigLoader creates a loader for the given config path
func NewBotConfigLoader(path string) *BotConfigLoader {
	return &BotConfigLoader{Path: path}
}

// Load reads the config file. A missing file is created with defaults
// (first run). On a read or parse failure the defaults are returned
// together with the error so callers can keep running.
func (l *BotConfigLoader) Load() (*BotConfig, error) {
	data, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		cfg := DefaultBotConfig()
		if saveErr := l.Save(cfg); saveErr != nil {
			return cfg, fmt.Errorf("create default config: %w", saveErr)
		}
		return cfg, nil
	}
	if err != nil {
		return DefaultBotConfig(), fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultBotConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultBotConfig(), fmt.Errorf("parse config: %w", err)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	return cfg, nil
}

// Save writes the config file
func (l *BotConfigLoader) Save(cfg *BotConfig) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(l.Path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
