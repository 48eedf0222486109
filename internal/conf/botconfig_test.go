package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
)

func TestLoad_FirstRunCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewBotConfigLoader(path)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Prefix != "!" {
		t.Errorf("Expected default prefix !, got %q", cfg.Prefix)
	}
	if cfg.ChatMode {
		t.Error("Expected chat mode off by default")
	}
	if cfg.Mood != string(domain.MoodCalm) {
		t.Errorf("Expected default mood calm, got %q", cfg.Mood)
	}

	// First run writes the file so later edits have something to target
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected config file to be created: %v", err)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	loader := NewBotConfigLoader(filepath.Join(t.TempDir(), "config.yaml"))

	cfg := DefaultBotConfig()
	cfg.Owner = "owner-1"
	cfg.ChatMode = true
	cfg.Mood = string(domain.MoodCryptic)
	cfg.TypingDelayMs = 250
	cfg.MemoryPruneDays = 7
	if err := loader.Save(cfg); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	got, err := loader.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if got.Owner != "owner-1" || !got.ChatMode || got.Mood != string(domain.MoodCryptic) {
		t.Errorf("Roundtrip mismatch: %+v", got)
	}
	if got.TypingDelay() != 250*time.Millisecond {
		t.Errorf("Expected 250ms typing delay, got %v", got.TypingDelay())
	}
	if got.RetentionWindow() != 7*24*time.Hour {
		t.Errorf("Expected 7-day retention, got %v", got.RetentionWindow())
	}
}

func TestLoad_MalformedReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0644); err != nil {
		t.Fatal(err)
	}
	loader := NewBotConfigLoader(path)

	cfg, err := loader.Load()
	if err == nil {
		t.Error("Expected a parse error")
	}
	if cfg == nil || cfg.Prefix != "!" {
		t.Errorf("Expected defaults on parse failure, got %+v", cfg)
	}
}

func TestLoad_EmptyPrefixFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("prefix: \"\"\nowner: o\n"), 0644); err != nil {
		t.Fatal(err)
	}
	loader := NewBotConfigLoader(path)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if cfg.Prefix != "!" {
		t.Errorf("Expected empty prefix to fall back to !, got %q", cfg.Prefix)
	}
	if cfg.Owner != "o" {
		t.Errorf("Expected owner preserved, got %q", cfg.Owner)
	}
}

func TestEffectiveMood_UnknownFallsBack(t *testing.T) {
	cfg := DefaultBotConfig()
	cfg.Mood = "furious"
	if cfg.EffectiveMood() != domain.MoodCalm {
		t.Errorf("Expected calm fallback, got %s", cfg.EffectiveMood())
	}
}
