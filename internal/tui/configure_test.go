package tui

import (
	"slices"
	"strings"
	"testing"

	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/templates"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "***"},
		{"short", "***"},
		{"12345678", "***"},
		{"sk-abcdefghijklmnop1234", "sk-abcd...1234"},
	}
	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGetConfiguredProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := getConfiguredProviders(cfg); len(got) != 0 {
		t.Errorf("expected no configured providers, got %v", got)
	}
	if hasUserChanges(cfg) {
		t.Error("default config should not count as user changes")
	}

	cfg.Providers["openai"] = config.ProviderConfig{APIKey: "sk-test"}
	cfg.Providers["groq"] = config.ProviderConfig{APIKey: "gsk-test"}
	cfg.Providers["gemini"] = config.ProviderConfig{BaseURL: "http://localhost"}

	got := getConfiguredProviders(cfg)
	want := []string{"groq", "openai"}
	if !slices.Equal(got, want) {
		t.Errorf("getConfiguredProviders = %v, want %v", got, want)
	}
	if !hasUserChanges(cfg) {
		t.Error("config with keys should count as user changes")
	}
}

func TestKeyedProviders(t *testing.T) {
	got := keyedProviders()
	if slices.Contains(got, provider.ProviderWhisperCpp) {
		t.Errorf("whisper-cpp needs no key, got %v", got)
	}
	for _, name := range []string{provider.ProviderOpenAI, provider.ProviderGroq, provider.ProviderElevenLabs, provider.ProviderGemini} {
		if !slices.Contains(got, name) {
			t.Errorf("expected %s in keyed providers %v", name, got)
		}
	}
	if !slices.IsSorted(got) {
		t.Errorf("keyed providers not sorted: %v", got)
	}
}

func TestTranscriptionProviderOptions(t *testing.T) {
	options := transcriptionProviderOptions([]string{provider.ProviderOpenAI})

	labels := make(map[string]string)
	for _, opt := range options {
		labels[opt.Value] = opt.Key
	}
	if len(options) != len(provider.ListProvidersFor(provider.Transcription)) {
		t.Errorf("expected one option per transcription provider, got %d", len(options))
	}
	if strings.Contains(labels[provider.ProviderOpenAI], "not configured") {
		t.Errorf("openai is configured: %q", labels[provider.ProviderOpenAI])
	}
	if !strings.Contains(labels[provider.ProviderGroq], "not configured") {
		t.Errorf("groq should be marked not configured: %q", labels[provider.ProviderGroq])
	}
	if strings.Contains(labels[provider.ProviderWhisperCpp], "not configured") {
		t.Errorf("local provider needs no key: %q", labels[provider.ProviderWhisperCpp])
	}
}

func TestTranscriptionModelOptions(t *testing.T) {
	t.Run("default first", func(t *testing.T) {
		options := transcriptionModelOptions(provider.ProviderOpenAI, provider.TierFast, "")
		if len(options) != 4 {
			t.Fatalf("expected default + 3 openai models, got %d", len(options))
		}
		if options[0].Value != "" {
			t.Errorf("first option should be the provider default, got %q", options[0].Value)
		}
		if !strings.Contains(options[0].Key, "gpt-4o-mini-transcribe") || !strings.Contains(options[0].Key, "(current)") {
			t.Errorf("unexpected default label %q", options[0].Key)
		}
	})

	t.Run("current marked", func(t *testing.T) {
		options := transcriptionModelOptions(provider.ProviderOpenAI, provider.TierAccurate, "whisper-1")
		for _, opt := range options {
			marked := strings.Contains(opt.Key, "(current)")
			if marked != (opt.Value == "whisper-1") {
				t.Errorf("option %q current marker = %v", opt.Value, marked)
			}
		}
	})

	t.Run("local sizes", func(t *testing.T) {
		options := transcriptionModelOptions(provider.ProviderWhisperCpp, provider.TierAccurate, "")
		if !strings.Contains(options[0].Key, "large-v3") {
			t.Errorf("unexpected default label %q", options[0].Key)
		}
		for _, opt := range options[1:] {
			if !strings.Contains(opt.Key, "[") {
				t.Errorf("local model %q should show its size: %q", opt.Value, opt.Key)
			}
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if options := transcriptionModelOptions("nope", provider.TierFast, ""); options != nil {
			t.Errorf("expected nil, got %v", options)
		}
	})
}

func TestGenerationModelOptions(t *testing.T) {
	options := generationModelOptions(provider.ProviderOpenAI, "gpt-4o-mini")
	if options[0].Value != "" || !strings.Contains(options[0].Key, "gpt-4o") {
		t.Errorf("unexpected default option %+v", options[0])
	}
	for _, opt := range options[1:] {
		if opt.Value == "whisper-1" {
			t.Error("transcription models must not be offered for generation")
		}
		if opt.Value == "gpt-4o-mini" && !strings.Contains(opt.Key, "(current)") {
			t.Errorf("current model not marked: %q", opt.Key)
		}
	}
}

func TestTemplateOptions(t *testing.T) {
	registry, err := templates.NewDefaultRegistry(nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	options := templateOptions(registry, "soap@1")
	values := make([]string, 0, len(options))
	for _, opt := range options {
		values = append(values, opt.Value)
		if opt.Value == "soap@1" && !strings.Contains(opt.Key, "(current)") {
			t.Errorf("pinned current template not marked: %q", opt.Key)
		}
	}
	want := []string{"soap", "soap@1", "soap@2"}
	if !slices.Equal(values, want) {
		t.Errorf("template options = %v, want %v", values, want)
	}
	for _, v := range values {
		if _, err := templates.ParseRef(v); err != nil {
			t.Errorf("option %q is not a valid reference: %v", v, err)
		}
	}
}

func TestLanguageOptions(t *testing.T) {
	options := languageOptions("es")
	if options[0].Value != "" {
		t.Errorf("first option should be auto-detect, got %q", options[0].Value)
	}
	if strings.Contains(options[0].Key, "(current)") {
		t.Error("auto-detect is not current")
	}

	found := false
	for _, opt := range options {
		if opt.Value == "es" {
			found = true
			if !strings.Contains(opt.Key, "(current)") {
				t.Errorf("current language not marked: %q", opt.Key)
			}
		}
	}
	if !found {
		t.Error("spanish not offered")
	}
}

func TestIncompatibleModel(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		fast     string
		accurate string
		code     string
		want     string
	}{
		{"english-only fast model", provider.ProviderWhisperCpp, "base.en", "", "es", "base.en"},
		{"english-only model with english", provider.ProviderWhisperCpp, "base.en", "", "en", ""},
		{"auto-detect", provider.ProviderWhisperCpp, "base.en", "small.en", "", ""},
		{"multilingual defaults", provider.ProviderWhisperCpp, "", "", "es", ""},
		{"accurate checked first", provider.ProviderWhisperCpp, "tiny.en", "small.en", "de", "small.en"},
		{"cloud provider", provider.ProviderOpenAI, "", "", "ar", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Transcription.Provider = tt.provider
			cfg.Transcription.Models = config.TierModels{Fast: tt.fast, Accurate: tt.accurate}

			got := incompatibleModel(cfg, tt.code)
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected no incompatible model, got %s", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	openai := provider.GetProvider(provider.ProviderOpenAI)
	tests := []struct {
		name    string
		p       provider.Provider
		key     string
		wantErr bool
	}{
		{"empty", openai, "", true},
		{"bad prefix", openai, "not-a-key", true},
		{"valid", openai, "sk-abcdefghijklmnop", false},
		{"unknown provider accepts any key", nil, "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKey(tt.p, "Test", tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAPIKey error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureProviderConfigured_LocalProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	configured := []string{"openai"}

	got := ensureProviderConfigured(cfg, provider.ProviderWhisperCpp, configured)
	if !slices.Equal(got, configured) {
		t.Errorf("local provider should not change configured list, got %v", got)
	}
	got = ensureProviderConfigured(cfg, provider.ProviderOpenAI, configured)
	if !slices.Equal(got, configured) {
		t.Errorf("already configured provider should pass through, got %v", got)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr bool
	}{
		{"temperature zero", validateTemperature, "0", false},
		{"temperature max", validateTemperature, "2", false},
		{"temperature too high", validateTemperature, "2.5", true},
		{"temperature negative", validateTemperature, "-0.1", true},
		{"temperature text", validateTemperature, "warm", true},
		{"duration", validateDuration, "30s", false},
		{"duration zero", validateDuration, "0s", true},
		{"duration garbage", validateDuration, "soon", true},
		{"positive int", validatePositiveInt, "100", false},
		{"zero int", validatePositiveInt, "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"metoprolol", []string{"metoprolol"}},
		{" metoprolol , , Dr. Haddad ", []string{"metoprolol", "Dr. Haddad"}},
	}
	for _, tt := range tests {
		if got := parseKeywords(tt.input); !slices.Equal(got, tt.want) {
			t.Errorf("parseKeywords(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSummaryLines(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers["openai"] = config.ProviderConfig{APIKey: "sk-test"}
	cfg.Transcription.Language = "es"
	cfg.Transcription.Models.Fast = "gpt-4o-mini-transcribe"
	cfg.Keywords = []string{"metoprolol"}

	values := make(map[string]string)
	for _, line := range summaryLines(cfg) {
		values[line[0]] = line[1]
	}

	checks := map[string]string{
		"Providers:":     "openai",
		"Transcription:": "openai (tier accurate)",
		"Models:":        "fast=gpt-4o-mini-transcribe accurate=default",
		"Language:":      "Spanish",
		"Template:":      "soap",
		"Note order:":    "oldest_first",
		"Keywords:":      "metoprolol",
	}
	for label, want := range checks {
		if values[label] != want {
			t.Errorf("%s = %q, want %q", label, values[label], want)
		}
	}

	cfg.Transcription.Models = config.TierModels{}
	cfg.Keywords = nil
	for _, line := range summaryLines(cfg) {
		if line[0] == "Models:" || line[0] == "Keywords:" {
			t.Errorf("unexpected line %q for empty value", line[0])
		}
	}
}
