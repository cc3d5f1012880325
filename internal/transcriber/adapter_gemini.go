package transcriber

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiAdapter implements Adapter with Gemini audio understanding
type GeminiAdapter struct {
	client   *genai.Client
	keywords []string
}

// NewGeminiAdapter creates a Gemini API client; empty baseURL uses Google's endpoint
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL string, keywords []string) (*GeminiAdapter, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiAdapter{client: client, keywords: keywords}, nil
}

func (a *GeminiAdapter) Transcribe(ctx context.Context, clip Clip) (*Result, error) {
	audioBytes, err := os.ReadFile(clip.Path)
	if err != nil {
		return nil, fmt.Errorf("read staged audio: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(transcriptionPrompt(clip.Language, a.keywords)),
				genai.NewPartFromBytes(audioBytes, clip.Format.MIME()),
			},
			genai.RoleUser,
		),
	}

	temp := float32(0)
	resp, err := a.client.Models.GenerateContent(ctx, clip.Model, contents, &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini transcription: %w", err)
	}

	return &Result{Text: resp.Text(), Confidence: NoConfidence}, nil
}

// transcriptionPrompt asks for a verbatim transcript; lang is an English language name or ""
func transcriptionPrompt(lang string, keywords []string) string {
	var b strings.Builder
	b.WriteString("Transcribe this recorded clinical conversation verbatim. ")
	b.WriteString("Output only the spoken words as plain text, without speaker labels, timestamps or commentary. ")
	b.WriteString("Do not summarize, correct or add anything.")
	if lang != "" {
		fmt.Fprintf(&b, " The conversation is in %s.", lang)
	}
	if len(keywords) > 0 {
		fmt.Fprintf(&b, " Terms that may occur: %s.", strings.Join(keywords, ", "))
	}
	return b.String()
}
