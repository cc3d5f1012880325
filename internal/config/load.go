package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var ErrConfigNotFound = errors.New("config not found")

// GetConfigPath returns $XDG_CONFIG_HOME/soapscribe/config.toml
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "soapscribe", "config.toml"), nil
}

// LoadEnv loads .env files from the working directory and next to the
// config file. Variables already set in the environment win.
func LoadEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Load reads the config at path (the default path when empty) on top of
// DefaultConfig. A missing file returns ErrConfigNotFound.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	LoadEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s: run soapscribe configure", ErrConfigNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	config := DefaultConfig()
	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		config.unknownKeys = append(config.unknownKeys, key.String())
	}

	config.applyDefaults()
	return config, nil
}

// LoadOrDefault is Load, falling back to DefaultConfig when the file is missing
func LoadOrDefault(path string) (*Config, error) {
	config, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		config = DefaultConfig()
		config.applyDefaults()
		return config, nil
	}
	return config, err
}

func (c *Config) applyDefaults() {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if c.Transcription.Threads == 0 {
		threads := runtime.NumCPU() - 1
		if threads < 1 {
			threads = 1
		}
		c.Transcription.Threads = threads
	}
	if c.Transcription.WhisperModelsDir == "" {
		c.Transcription.WhisperModelsDir = WhisperModelsDir()
	}
}
