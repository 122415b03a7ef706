package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdf-compressor-go/internal/preset"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	Ghostscript GhostscriptConfig `mapstructure:"ghostscript"`
	Compression CompressionConfig `mapstructure:"compression"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Web         WebConfig         `mapstructure:"web"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// GhostscriptConfig locates and bounds the external tool
type GhostscriptConfig struct {
	Path    string        `mapstructure:"path"`    // empty means auto-detect
	Timeout time.Duration `mapstructure:"timeout"` // 0 means no limit
}

// CompressionConfig contains batch defaults
type CompressionConfig struct {
	DefaultLevel    string `mapstructure:"default_level"`
	OutputDirectory string `mapstructure:"output_directory"`
	Recursive       bool   `mapstructure:"recursive"`
}

// StorageConfig points at the preferences database
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// WebConfig contains web interface settings
type WebConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Compression: CompressionConfig{
			DefaultLevel: preset.DefaultLevel,
		},
		Storage: StorageConfig{
			DatabasePath: defaultDatabasePath(),
		},
		Web: WebConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "pdf-compressor.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pdf-compressor")
		v.AddConfigPath("/etc/pdf-compressor")
	}

	v.SetEnvPrefix("PDF_COMPRESSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so environment overrides apply on Unmarshal.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("ghostscript.path", c.Ghostscript.Path)
	v.SetDefault("ghostscript.timeout", c.Ghostscript.Timeout)
	v.SetDefault("compression.default_level", c.Compression.DefaultLevel)
	v.SetDefault("compression.output_directory", c.Compression.OutputDirectory)
	v.SetDefault("compression.recursive", c.Compression.Recursive)
	v.SetDefault("storage.database_path", c.Storage.DatabasePath)
	v.SetDefault("web.port", c.Web.Port)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.file_path", c.Logging.FilePath)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)
}

// Validate validates and normalizes the configuration
func (c *Config) Validate() error {
	if c.Ghostscript.Timeout < 0 {
		return fmt.Errorf("ghostscript.timeout must not be negative: %s", c.Ghostscript.Timeout)
	}
	c.Ghostscript.Path = expandPath(c.Ghostscript.Path)

	if c.Compression.DefaultLevel == "" {
		c.Compression.DefaultLevel = preset.DefaultLevel
	}
	level, err := preset.Lookup(c.Compression.DefaultLevel)
	if err != nil {
		return fmt.Errorf("compression.default_level: %w", err)
	}
	c.Compression.DefaultLevel = level.Label

	if c.Compression.OutputDirectory != "" {
		c.Compression.OutputDirectory = expandPath(c.Compression.OutputDirectory)
		if info, err := os.Stat(c.Compression.OutputDirectory); err == nil && !info.IsDir() {
			return fmt.Errorf("compression.output_directory is not a directory: %s", c.Compression.OutputDirectory)
		}
	}

	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = defaultDatabasePath()
	}
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath)

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web.port: %d", c.Web.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// Helper functions

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pdf-compressor.sqlite3"
	}
	return filepath.Join(home, ".pdf-compressor", "pdf-compressor.sqlite3")
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	expanded := os.ExpandEnv(path)
	if strings.HasPrefix(expanded, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		expanded = filepath.Join(home, expanded[1:])
	}
	return expanded
}
