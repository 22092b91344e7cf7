package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".config/kartoza-narration-tuner"
	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.json"
	// DefaultOutputSuffix is appended to input names when no output is given
	DefaultOutputSuffix = "_normalized"
	// DefaultExportTimeout bounds --await-export, in seconds
	DefaultExportTimeout = 1800
)

// Environment variables that override the config file
const (
	EnvFFmpegPath  = "FFMPEG_PATH"
	EnvFFprobePath = "FFPROBE_PATH"
	EnvLogFile     = "NARRATION_LOG_FILE"
	EnvTargetLUFS  = "NARRATION_TARGET_LUFS"
	EnvTruePeak    = "NARRATION_TRUE_PEAK"
)

// Config holds the application configuration
type Config struct {
	Normalize    models.NormalizeOptions `json:"normalize"`
	OutputSuffix string                  `json:"output_suffix"`
	// FFmpegPath and FFprobePath override PATH lookup when set
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
	FFprobePath string `json:"ffprobe_path,omitempty"`
	LogFile     string `json:"log_file,omitempty"`
	Notify      bool   `json:"notify"`
	// ExportTimeout is the --await-export ceiling in seconds
	ExportTimeout int `json:"export_timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Normalize:     models.DefaultNormalizeOptions(),
		OutputSuffix:  DefaultOutputSuffix,
		ExportTimeout: DefaultExportTimeout,
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDir
	}
	return filepath.Join(home, DefaultConfigDir)
}

// GetConfigPath returns the configuration file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// Load loads the configuration from disk
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads the configuration from path. Fields missing from the
// file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return &cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// SaveTo saves the configuration to path
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads .env files (the working directory's .env when none are
// given) and applies environment overrides. Existing environment variables
// win over .env entries.
func (c *Config) ApplyEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && (len(files) > 0 || !os.IsNotExist(err)) {
		return fmt.Errorf("failed to load environment file: %w", err)
	}

	c.FFmpegPath = getEnv(EnvFFmpegPath, c.FFmpegPath)
	c.FFprobePath = getEnv(EnvFFprobePath, c.FFprobePath)
	c.LogFile = getEnv(EnvLogFile, c.LogFile)

	var err error
	if c.Normalize.TargetLoudness, err = getEnvFloat(EnvTargetLUFS, c.Normalize.TargetLoudness); err != nil {
		return err
	}
	if c.Normalize.TruePeak, err = getEnvFloat(EnvTruePeak, c.Normalize.TruePeak); err != nil {
		return err
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
	return f, nil
}
