package config

import "time"

// Config is loaded once at process start and passed down to components
type Config struct {
	Server        ServerConfig              `toml:"server"`
	Logging       LoggingConfig             `toml:"logging"`
	Storage       StorageConfig             `toml:"storage"`
	Audio         AudioConfig               `toml:"audio"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Generation    GenerationConfig          `toml:"generation"`
	Analysis      AnalysisConfig            `toml:"analysis"`
	Templates     TemplatesConfig           `toml:"templates"`
	Notes         NotesConfig               `toml:"notes"`
	Providers     map[string]ProviderConfig `toml:"providers"`
	Keywords      []string                  `toml:"keywords"`

	unknownKeys []string
}

// ProviderConfig holds credentials and endpoint overrides for a provider
type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxUploadMB     int           `toml:"max_upload_mb"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
}

type StorageConfig struct {
	Path string `toml:"path"` // sqlite database file
}

type AudioConfig struct {
	SpoolDir string `toml:"spool_dir"` // where recordings are staged; empty = system temp dir
}

type TranscriptionConfig struct {
	Provider         string     `toml:"provider"`
	Language         string     `toml:"language"` // default language; empty = auto-detect
	Tier             string     `toml:"tier"`     // default tier: fast or accurate
	Models           TierModels `toml:"models"`
	Threads          int        `toml:"threads"` // CPU threads for whisper-cpp (0 = auto: NumCPU-1)
	WhisperBinary    string     `toml:"whisper_binary"`
	WhisperModelsDir string     `toml:"whisper_models_dir"`
}

// TierModels overrides the provider's default model per tier
type TierModels struct {
	Fast     string `toml:"fast"`
	Accurate string `toml:"accurate"`
}

type GenerationConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	Template    string  `toml:"template"` // default template reference, e.g. "soap" or "soap@1"
}

// AnalysisConfig configures case analysis; empty fields inherit from generation
type AnalysisConfig struct {
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model"`
	Temperature *float64 `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
}

type TemplatesConfig struct {
	Dir   string `toml:"dir"`   // extra *.toml templates
	Watch bool   `toml:"watch"` // publish new files while serving
}

type NotesConfig struct {
	Order string `toml:"order"` // oldest_first or newest_first
}

// UnknownKeys returns config keys that were present in the file but not recognized
func (c *Config) UnknownKeys() []string {
	return c.unknownKeys
}
