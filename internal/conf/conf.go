package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Moonshot configuration (optional, enables model-backed chat replies)
	Moonshot MoonshotConfig

	// Data configuration
	Data DataConfig

	// Maintenance configuration
	Maintenance MaintenanceConfig

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// MoonshotConfig contains Moonshot configuration
type MoonshotConfig struct {
	APIKey string
	Model  string
}

// DataConfig contains storage paths
type DataConfig struct {
	Dir        string // data directory (database, legacy JSON files)
	DBPath     string // sqlite database path
	ConfigPath string // runtime bot config (YAML)
	LogDir     string // message log directory
}

// MaintenanceConfig contains maintenance settings
type MaintenanceConfig struct {
	PruneInterval time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Data directory
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		homeDir, _ := os.UserHomeDir()
		dataDir = filepath.Join(homeDir, ".acheron")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "acheron.db")
	}

	configPath := os.Getenv("BOT_CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(dataDir, "config.yaml")
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = filepath.Join(dataDir, "logs")
	}

	// Prune interval
	pruneHours := 12
	if val := os.Getenv("PRUNE_INTERVAL_HOURS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			pruneHours = parsed
		}
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Moonshot: MoonshotConfig{
			APIKey: os.Getenv("MOONSHOT_API_KEY"),
			Model:  os.Getenv("MOONSHOT_MODEL"),
		},
		Data: DataConfig{
			Dir:        dataDir,
			DBPath:     dbPath,
			ConfigPath: configPath,
			LogDir:     logDir,
		},
		Maintenance: MaintenanceConfig{
			PruneInterval: time.Duration(pruneHours) * time.Hour,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
