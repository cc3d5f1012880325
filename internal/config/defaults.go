package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// DefaultConfig returns the configuration used when no file sets a value
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			RequestTimeout:  5 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadMB:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Path: filepath.Join(DataDir(), "notes.db"),
		},
		Transcription: TranscriptionConfig{
			Provider:      provider.ProviderOpenAI,
			Tier:          string(provider.TierAccurate),
			WhisperBinary: "whisper-cli",
		},
		Generation: GenerationConfig{
			Provider:    provider.ProviderOpenAI,
			Temperature: 0,
			Template:    "soap",
		},
		Notes: NotesConfig{
			Order: "oldest_first",
		},
		Providers: make(map[string]ProviderConfig),
	}
}

// DataDir is where the note database lives by default:
// $XDG_DATA_HOME/soapscribe, falling back to ~/.local/share/soapscribe
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "soapscribe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "soapscribe-data"
	}
	return filepath.Join(home, ".local", "share", "soapscribe")
}

// WhisperModelsDir is the default location of ggml model files
func WhisperModelsDir() string {
	return filepath.Join(DataDir(), "models", "whisper")
}
