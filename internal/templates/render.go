package templates

import "strings"

// GenerationRequest is a rendered prompt ready for a generator
type GenerationRequest struct {
	System          string
	Prompt          string
	TemplateID      string
	TemplateVersion int
}

// RenderPrompt substitutes transcript verbatim into the template's single slot.
// The transcript is neither truncated nor escaped.
func RenderPrompt(t *Template, transcript string) GenerationRequest {
	before, after, _ := strings.Cut(t.compiled, Slot)
	var b strings.Builder
	b.Grow(len(before) + len(transcript) + len(after))
	b.WriteString(before)
	b.WriteString(transcript)
	b.WriteString(after)

	return GenerationRequest{
		System:          t.System,
		Prompt:          b.String(),
		TemplateID:      t.ID,
		TemplateVersion: t.Version,
	}
}
