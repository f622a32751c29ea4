// Package config loads and validates the resizer configuration from a
// yaml file, environment variables and built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure.
type Config struct {
	Resize      ResizeConfig      `mapstructure:"resize"`
	Performance PerformanceConfig `mapstructure:"performance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ResizeConfig contains image resizing settings.
type ResizeConfig struct {
	OutputDirName       string   `mapstructure:"output_dir_name"`
	OutputSuffix        string   `mapstructure:"output_suffix"`
	DefaultQuality      int      `mapstructure:"default_quality"`
	SupportedExtensions []string `mapstructure:"supported_extensions"`
	AutoScale           bool     `mapstructure:"auto_scale"`
	MaintainAspectRatio bool     `mapstructure:"maintain_aspect_ratio"`
}

// PerformanceConfig contains performance tuning settings.
type PerformanceConfig struct {
	Parallel      bool `mapstructure:"parallel"`
	WorkerThreads int  `mapstructure:"worker_threads"`
	ShowProgress  bool `mapstructure:"show_progress"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Resize: ResizeConfig{
			OutputDirName:  "resized",
			OutputSuffix:   "_resized",
			DefaultQuality: 90,
			SupportedExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".tif",
			},
			AutoScale:           false,
			MaintainAspectRatio: false,
		},
		Performance: PerformanceConfig{
			Parallel:      false,
			WorkerThreads: 0, // 0 means NumCPU
			ShowProgress:  true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "img-resizer.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A missing config file is not an error; defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.img-resizer")
		viper.AddConfigPath("/etc/img-resizer")
	}

	viper.SetEnvPrefix("IMG_RESIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates and normalizes the configuration.
func (c *Config) Validate() error {
	if c.Resize.OutputDirName == "" {
		c.Resize.OutputDirName = "resized"
	}
	if c.Resize.OutputSuffix == "" {
		c.Resize.OutputSuffix = "_resized"
	}

	if c.Resize.DefaultQuality <= 0 || c.Resize.DefaultQuality > 100 {
		return fmt.Errorf("invalid default_quality: %d (must be in 1..100)", c.Resize.DefaultQuality)
	}

	if len(c.Resize.SupportedExtensions) == 0 {
		c.Resize.SupportedExtensions = DefaultConfig().Resize.SupportedExtensions
	}
	c.Resize.SupportedExtensions = normalizeExtensions(c.Resize.SupportedExtensions)

	if c.Performance.WorkerThreads < 0 {
		c.Performance.WorkerThreads = 0
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

// IsImageExtension checks if the extension belongs to a supported image file.
func (c *Config) IsImageExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supported := range c.Resize.SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[i] = ext
	}
	return normalized
}
