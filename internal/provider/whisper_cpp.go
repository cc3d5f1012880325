package provider

import "strings"

const whisperDownloadURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

type whisperModel struct {
	id, name, size string
	multilingual   bool
	description    string
}

// available ggml models from huggingface.co/ggerganov/whisper.cpp
var whisperModels = []whisperModel{
	{"tiny.en", "Tiny English", "75MB", false, "Free/offline; fastest but low accuracy"},
	{"base.en", "Base English", "142MB", false, "Free/offline; balanced speed and accuracy"},
	{"small.en", "Small English", "466MB", false, "Free/offline; better accuracy, needs decent CPU"},
	{"medium.en", "Medium English", "1.5GB", false, "Free/offline; best .en accuracy"},
	{"tiny", "Tiny", "75MB", true, "Free/offline multilingual; fastest"},
	{"base", "Base", "142MB", true, "Free/offline multilingual; balanced"},
	{"small", "Small", "466MB", true, "Free/offline multilingual; better accuracy"},
	{"medium", "Medium", "1.5GB", true, "Free/offline multilingual; great accuracy"},
	{"large-v3", "Large V3", "3GB", true, "Free/offline; best accuracy, needs strong hardware"},
	{"large-v3-turbo", "Large V3 Turbo", "1.6GB", true, "Free/offline; near-best accuracy with better speed"},
}

// WhisperCppProvider implements Provider for local whisper.cpp transcription
type WhisperCppProvider struct{}

func (p *WhisperCppProvider) Name() string {
	return ProviderWhisperCpp
}

func (p *WhisperCppProvider) RequiresAPIKey() bool {
	return false
}

func (p *WhisperCppProvider) ValidateAPIKey(key string) bool {
	return true
}

func (p *WhisperCppProvider) IsLocal() bool {
	return true
}

func (p *WhisperCppProvider) Models() []Model {
	out := make([]Model, 0, len(whisperModels))
	for _, wm := range whisperModels {
		var langs []string
		if !wm.multilingual {
			langs = []string{"en"}
		}
		filename := WhisperModelFilename(wm.id)
		out = append(out, Model{
			ID:                 wm.id,
			Name:               wm.name,
			Description:        wm.description,
			Type:               Transcription,
			Local:              true,
			SupportedLanguages: langs,
			LocalInfo: &LocalModelInfo{
				Filename:    filename,
				Size:        wm.size,
				DownloadURL: whisperDownloadURL + "/" + filename,
			},
		})
	}
	return out
}

func (p *WhisperCppProvider) DefaultModel(t ModelType, tier Tier) string {
	if t != Transcription {
		return ""
	}
	if tier == TierFast {
		return "base"
	}
	return "large-v3"
}

// WhisperModelFilename maps a model id to its ggml file name
func WhisperModelFilename(id string) string {
	if strings.HasSuffix(id, ".bin") {
		return id
	}
	return "ggml-" + id + ".bin"
}
