package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const header = `# soapscribe configuration
# API keys may be left empty here and supplied through the environment
# (OPENAI_API_KEY, GROQ_API_KEY, ELEVENLABS_API_KEY, GEMINI_API_KEY) or a .env file.
#
# transcription.tier: "fast" or "accurate"
# transcription.language: empty for auto-detect, or a code such as "en", "es", "ar"
# generation.temperature: 0 keeps notes reproducible; other values are logged as a deviation
# generation.template: "soap" for the latest version, or "soap@1" to pin one
# notes.order: "oldest_first" or "newest_first"

`

// Save writes c to path as TOML with owner-only permissions
func Save(path string, c *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveDefaultConfig writes DefaultConfig to path unless a file already exists
func SaveDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return Save(path, DefaultConfig())
}
