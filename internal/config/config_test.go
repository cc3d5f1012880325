package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/templates"
)

// createTestConfig returns a valid configuration for testing
func createTestConfig() *Config {
	c := DefaultConfig()
	c.Storage.Path = filepath.Join(os.TempDir(), "soapscribe-test.db")
	c.Providers = map[string]ProviderConfig{
		"openai": {APIKey: "test-api-key"},
	}
	c.Transcription.Threads = 2
	return c
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soapscribe", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create config directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range provider.ListProviders() {
		if env := provider.EnvVarForProvider(name); env != "" {
			t.Setenv(env, "")
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{
			name:    "empty server addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *Config) { c.Server.RequestTimeout = 0 },
			wantErr: "server.request_timeout",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "server.shutdown_timeout",
		},
		{
			name:    "zero upload limit",
			mutate:  func(c *Config) { c.Server.MaxUploadMB = 0 },
			wantErr: "server.max_upload_mb",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "empty storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path",
		},
		{
			name:    "empty transcription provider",
			mutate:  func(c *Config) { c.Transcription.Provider = "" },
			wantErr: "transcription.provider",
		},
		{
			name:    "unknown transcription provider",
			mutate:  func(c *Config) { c.Transcription.Provider = "dragon" },
			wantErr: "unsupported transcription.provider",
		},
		{
			name: "missing transcription key",
			mutate: func(c *Config) {
				c.Transcription.Provider = provider.ProviderElevenLabs
			},
			wantErr: "API key required for transcription",
		},
		{
			name: "whisper-cpp needs no key",
			mutate: func(c *Config) {
				c.Transcription.Provider = provider.ProviderWhisperCpp
			},
		},
		{
			name: "whisper-cpp accepts a model path",
			mutate: func(c *Config) {
				c.Transcription.Provider = provider.ProviderWhisperCpp
				c.Transcription.Models.Accurate = "/opt/models/ggml-custom.bin"
			},
		},
		{
			name:    "unknown model",
			mutate:  func(c *Config) { c.Transcription.Models.Fast = "whisper-9000" },
			wantErr: "transcription.models.fast",
		},
		{
			name:   "known fast model",
			mutate: func(c *Config) { c.Transcription.Models.Fast = "gpt-4o-mini-transcribe" },
		},
		{
			name:   "language with region",
			mutate: func(c *Config) { c.Transcription.Language = "en-US" },
		},
		{
			name:    "unsupported language",
			mutate:  func(c *Config) { c.Transcription.Language = "klingon" },
			wantErr: "transcription.language",
		},
		{
			name:    "bad tier",
			mutate:  func(c *Config) { c.Transcription.Tier = "medium" },
			wantErr: "transcription.tier",
		},
		{
			name:    "negative threads",
			mutate:  func(c *Config) { c.Transcription.Threads = -1 },
			wantErr: "transcription.threads",
		},
		{
			name:    "unknown generation provider",
			mutate:  func(c *Config) { c.Generation.Provider = "elevenlabs" },
			wantErr: "unsupported generation.provider",
		},
		{
			name:    "missing generation key",
			mutate:  func(c *Config) { c.Generation.Provider = provider.ProviderGroq },
			wantErr: "API key required for generation",
		},
		{
			name:    "temperature above range",
			mutate:  func(c *Config) { c.Generation.Temperature = 2.5 },
			wantErr: "generation.temperature",
		},
		{
			name:   "non-zero temperature allowed",
			mutate: func(c *Config) { c.Generation.Temperature = 0.7 },
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *Config) { c.Generation.MaxTokens = -5 },
			wantErr: "generation.max_tokens",
		},
		{
			name:    "bad template version",
			mutate:  func(c *Config) { c.Generation.Template = "soap@x" },
			wantErr: "generation.template",
		},
		{
			name:    "template ref without id",
			mutate:  func(c *Config) { c.Generation.Template = "@2" },
			wantErr: "generation.template",
		},
		{
			name:   "latest template ref",
			mutate: func(c *Config) { c.Generation.Template = "soap@latest" },
		},
		{
			name:   "pinned template ref",
			mutate: func(c *Config) { c.Generation.Template = "soap@1" },
		},
		{
			name:    "unknown analysis provider",
			mutate:  func(c *Config) { c.Analysis.Provider = "whisper-cpp" },
			wantErr: "unsupported analysis.provider",
		},
		{
			name: "analysis temperature out of range",
			mutate: func(c *Config) {
				temp := -0.1
				c.Analysis.Temperature = &temp
			},
			wantErr: "analysis.temperature",
		},
		{
			name:    "watch without dir",
			mutate:  func(c *Config) { c.Templates.Watch = true },
			wantErr: "templates.dir",
		},
		{
			name:    "bad note order",
			mutate:  func(c *Config) { c.Notes.Order = "random" },
			wantErr: "notes.order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_APIKeyFromEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GROQ_API_KEY", "env-key")

	c := createTestConfig()
	c.Transcription.Provider = provider.ProviderGroq
	c.Generation.Provider = provider.ProviderGroq
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() with env key error = %v", err)
	}
}

func TestConfig_Load(t *testing.T) {
	clearProviderEnv(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if err == nil {
			t.Fatal("Load() expected error for missing file")
		}
		if !strings.Contains(err.Error(), ErrConfigNotFound.Error()) {
			t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeConfig(t, `
[server]
addr = "0.0.0.0:9090"
request_timeout = "90s"

[transcription]
provider = "groq"
tier = "fast"
language = "es"

[transcription.models]
fast = "whisper-large-v3-turbo"

[providers.groq]
api_key = "gsk-test"

[generation]
provider = "groq"
template = "soap@1"

[notes]
order = "newest_first"
`)
		c, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if c.Server.Addr != "0.0.0.0:9090" {
			t.Errorf("Server.Addr = %s", c.Server.Addr)
		}
		if c.Server.RequestTimeout != 90*time.Second {
			t.Errorf("Server.RequestTimeout = %v", c.Server.RequestTimeout)
		}
		if c.Server.ShutdownTimeout != 15*time.Second {
			t.Errorf("Server.ShutdownTimeout default lost: %v", c.Server.ShutdownTimeout)
		}
		if c.Logging.Level != "info" {
			t.Errorf("Logging.Level default lost: %s", c.Logging.Level)
		}
		if c.Transcription.Models.Fast != "whisper-large-v3-turbo" {
			t.Errorf("Models.Fast = %s", c.Transcription.Models.Fast)
		}
		if c.Providers["groq"].APIKey != "gsk-test" {
			t.Errorf("providers.groq.api_key = %s", c.Providers["groq"].APIKey)
		}
		if c.NoteOrder() != notes.NewestFirst {
			t.Errorf("NoteOrder() = %s", c.NoteOrder())
		}
		if c.DefaultTemplate() != (templates.Ref{ID: "soap", Version: 1}) {
			t.Errorf("DefaultTemplate() = %v", c.DefaultTemplate())
		}
		if err := c.Validate(); err != nil {
			t.Errorf("loaded config invalid: %v", err)
		}
	})

	t.Run("records unknown keys", func(t *testing.T) {
		path := writeConfig(t, `
[recording]
sample_rate = 16000

[generation]
provider = "openai"
temprature = 0.3
`)
		c, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		keys := strings.Join(c.UnknownKeys(), ",")
		if !strings.Contains(keys, "recording.sample_rate") {
			t.Errorf("UnknownKeys() = %v, want recording.sample_rate", c.UnknownKeys())
		}
		if !strings.Contains(keys, "generation.temprature") {
			t.Errorf("UnknownKeys() = %v, want generation.temprature", c.UnknownKeys())
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := writeConfig(t, "[server\naddr = ")
		if _, err := Load(path); err == nil {
			t.Error("Load() expected parse error")
		}
	})

	t.Run("env file next to config", func(t *testing.T) {
		path := writeConfig(t, "[transcription]\nprovider = \"elevenlabs\"\n")
		envPath := filepath.Join(filepath.Dir(path), ".env")
		if err := os.WriteFile(envPath, []byte("ELEVENLABS_API_KEY=from-dotenv\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("ELEVENLABS_API_KEY", "")
		os.Unsetenv("ELEVENLABS_API_KEY")

		c, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got := c.ToTranscriberConfig().APIKey; got != "from-dotenv" {
			t.Errorf("APIKey = %q, want value from .env", got)
		}
	})
}

func TestConfig_LoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if c.Server.Addr != DefaultConfig().Server.Addr {
		t.Errorf("Server.Addr = %s", c.Server.Addr)
	}
	if c.Transcription.Threads < 1 {
		t.Errorf("Threads = %d, want auto value", c.Transcription.Threads)
	}
}

func TestConfig_ThreadsDefault(t *testing.T) {
	path := writeConfig(t, "[transcription]\nprovider = \"whisper-cpp\"\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := runtime.NumCPU() - 1
	if want < 1 {
		want = 1
	}
	if c.Transcription.Threads != want {
		t.Errorf("Threads = %d, want %d", c.Transcription.Threads, want)
	}
	if c.Transcription.WhisperModelsDir == "" {
		t.Error("WhisperModelsDir not defaulted")
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	clearProviderEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	c := createTestConfig()
	c.Server.RequestTimeout = 2 * time.Minute
	c.Transcription.Tier = "fast"
	c.Keywords = []string{"metoprolol", "lisinopril"}
	temp := 0.2
	c.Analysis.Temperature = &temp

	if err := Save(path, c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.RequestTimeout != 2*time.Minute {
		t.Errorf("RequestTimeout = %v", loaded.Server.RequestTimeout)
	}
	if loaded.Transcription.Tier != "fast" {
		t.Errorf("Tier = %s", loaded.Transcription.Tier)
	}
	if len(loaded.Keywords) != 2 {
		t.Errorf("Keywords = %v", loaded.Keywords)
	}
	if loaded.Analysis.Temperature == nil || *loaded.Analysis.Temperature != 0.2 {
		t.Errorf("Analysis.Temperature = %v", loaded.Analysis.Temperature)
	}
	if loaded.Providers["openai"].APIKey != "test-api-key" {
		t.Errorf("providers.openai.api_key lost")
	}
	if len(loaded.UnknownKeys()) != 0 {
		t.Errorf("UnknownKeys() = %v after round trip", loaded.UnknownKeys())
	}
}

func TestConfig_SaveDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveDefaultConfig(path); err != nil {
		t.Fatalf("SaveDefaultConfig() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# soapscribe configuration") {
		t.Error("saved config missing header")
	}
	if err := SaveDefaultConfig(path); err == nil {
		t.Error("SaveDefaultConfig() expected error when file exists")
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if path != filepath.Join(dir, "soapscribe", "config.toml") {
		t.Errorf("GetConfigPath() = %s", path)
	}
}

func TestDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	if got := DataDir(); got != filepath.Join(dir, "soapscribe") {
		t.Errorf("DataDir() = %s", got)
	}
	if got := DefaultConfig().Storage.Path; got != filepath.Join(dir, "soapscribe", "notes.db") {
		t.Errorf("default storage path = %s", got)
	}
}

func TestConfig_ToTranscriberConfig(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name    string
		setup   func(c *Config)
		env     map[string]string
		wantKey string
	}{
		{
			name:    "key from providers map",
			setup:   func(c *Config) {},
			wantKey: "test-api-key",
		},
		{
			name: "providers map wins over env",
			setup: func(c *Config) {
				c.Transcription.Provider = provider.ProviderGroq
				c.Providers["groq"] = ProviderConfig{APIKey: "from-config"}
			},
			env:     map[string]string{"GROQ_API_KEY": "from-env"},
			wantKey: "from-config",
		},
		{
			name: "env fallback",
			setup: func(c *Config) {
				c.Transcription.Provider = provider.ProviderElevenLabs
			},
			env:     map[string]string{"ELEVENLABS_API_KEY": "from-env"},
			wantKey: "from-env",
		},
		{
			name: "local provider has no key",
			setup: func(c *Config) {
				c.Transcription.Provider = provider.ProviderWhisperCpp
			},
			wantKey: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			c := createTestConfig()
			tt.setup(c)
			got := c.ToTranscriberConfig()
			if got.APIKey != tt.wantKey {
				t.Errorf("APIKey = %q, want %q", got.APIKey, tt.wantKey)
			}
			if got.Provider != c.Transcription.Provider {
				t.Errorf("Provider = %s", got.Provider)
			}
		})
	}
}

func TestConfig_ToTranscriberConfig_Fields(t *testing.T) {
	c := createTestConfig()
	c.Transcription.Models.Fast = "gpt-4o-mini-transcribe"
	c.Transcription.Threads = 3
	c.Audio.SpoolDir = "/var/spool/soapscribe"
	c.Keywords = []string{"hypertension"}
	c.Providers["openai"] = ProviderConfig{APIKey: "k", BaseURL: "http://localhost:9999/v1"}

	got := c.ToTranscriberConfig()
	if got.Models[provider.TierFast] != "gpt-4o-mini-transcribe" {
		t.Errorf("Models[fast] = %s", got.Models[provider.TierFast])
	}
	if _, ok := got.Models[provider.TierAccurate]; ok {
		t.Error("unset accurate model should be absent")
	}
	if got.SpoolDir != "/var/spool/soapscribe" || got.Threads != 3 {
		t.Errorf("SpoolDir/Threads = %s/%d", got.SpoolDir, got.Threads)
	}
	if got.BaseURL != "http://localhost:9999/v1" {
		t.Errorf("BaseURL = %s", got.BaseURL)
	}
	if len(got.Keywords) != 1 {
		t.Errorf("Keywords = %v", got.Keywords)
	}
}

func TestConfig_ToGenerationConfig(t *testing.T) {
	c := createTestConfig()
	c.Generation.MaxTokens = 1200

	llmCfg, synthCfg := c.ToGenerationConfig()
	if llmCfg.Provider != "openai" || llmCfg.APIKey != "test-api-key" {
		t.Errorf("llm config = %+v", llmCfg)
	}
	if synthCfg.Model != "gpt-4o" {
		t.Errorf("Model = %s, want provider default", synthCfg.Model)
	}
	if synthCfg.Temperature != 0 || synthCfg.MaxTokens != 1200 {
		t.Errorf("synth config = %+v", synthCfg)
	}

	c.Generation.Model = "gpt-4.1"
	if _, s := c.ToGenerationConfig(); s.Model != "gpt-4.1" {
		t.Errorf("explicit model lost: %s", s.Model)
	}
}

func TestConfig_ToAnalysisConfig(t *testing.T) {
	clearProviderEnv(t)

	t.Run("inherits generation", func(t *testing.T) {
		c := createTestConfig()
		c.Generation.Model = "gpt-4.1"
		c.Generation.Temperature = 0.3

		llmCfg, s := c.ToAnalysisConfig()
		if llmCfg.Provider != "openai" {
			t.Errorf("Provider = %s", llmCfg.Provider)
		}
		if s.Model != "gpt-4.1" || s.Temperature != 0.3 {
			t.Errorf("synth config = %+v", s)
		}
	})

	t.Run("own provider and zero temperature", func(t *testing.T) {
		c := createTestConfig()
		c.Generation.Temperature = 0.5
		c.Analysis.Provider = provider.ProviderGemini
		c.Providers["gemini"] = ProviderConfig{APIKey: "g-key"}
		zero := 0.0
		c.Analysis.Temperature = &zero

		llmCfg, s := c.ToAnalysisConfig()
		if llmCfg.Provider != "gemini" || llmCfg.APIKey != "g-key" {
			t.Errorf("llm config = %+v", llmCfg)
		}
		if s.Model != "gemini-2.5-flash" {
			t.Errorf("Model = %s, want gemini default", s.Model)
		}
		if s.Temperature != 0 {
			t.Errorf("Temperature = %v, want explicit 0", s.Temperature)
		}
	})
}

func TestConfig_ToLoggerConfig(t *testing.T) {
	c := createTestConfig()
	c.Logging.Level = "debug"
	c.Logging.Format = "json"
	got := c.ToLoggerConfig()
	if got.Level != "debug" || got.Format != "json" {
		t.Errorf("ToLoggerConfig() = %+v", got)
	}
}
