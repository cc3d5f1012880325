// Package templates holds the versioned note templates used for generation.
//
// A template is published once per (id, version) and frozen: the registry
// compiles it to a prompt text containing exactly one transcript slot, and
// that text never changes afterwards. Callers refer to templates through a
// Ref; version 0 in a Ref asks for the latest published version.
package templates

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// Slot marks where the transcript is substituted
const Slot = "{{transcript}}"

var (
	ErrConflict = errors.New("template version already published with different content")
	ErrInvalid  = errors.New("invalid template")
)

// Section is one required heading of the generated note
type Section struct {
	Title   string `toml:"title" json:"title"`
	Heading string `toml:"heading" json:"heading,omitempty"` // literal heading, defaults to "## <Title>"
	Guide   string `toml:"guide" json:"guide,omitempty"`     // what the section should cover
}

// Template is a published note template
type Template struct {
	ID          string    `toml:"id" json:"id"`
	Version     int       `toml:"version" json:"version"`
	Title       string    `toml:"title" json:"title"`
	Description string    `toml:"description" json:"description,omitempty"`
	System      string    `toml:"system" json:"system,omitempty"`
	Preamble    string    `toml:"preamble" json:"preamble,omitempty"`
	Sections    []Section `toml:"sections" json:"sections"`
	Directives  []string  `toml:"directives" json:"directives,omitempty"`
	Closing     string    `toml:"closing" json:"closing,omitempty"`

	compiled    string
	fingerprint string
}

// Key is the "id@version" form
func (t *Template) Key() string {
	return fmt.Sprintf("%s@%d", t.ID, t.Version)
}

// Text returns the frozen prompt text with the slot still in place
func (t *Template) Text() string {
	return t.compiled
}

// Fingerprint identifies the compiled content
func (t *Template) Fingerprint() string {
	return t.fingerprint
}

// SectionTitles returns the required section titles in order
func (t *Template) SectionTitles() []string {
	titles := make([]string, len(t.Sections))
	for i, s := range t.Sections {
		titles[i] = s.Title
	}
	return titles
}

// MissingSections returns the titles of required sections with no heading in
// text. A section counts as present when a line starts with its title or its
// literal heading, ignoring case and leading markdown markers, and the match
// ends at a word boundary.
func (t *Template) MissingSections(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.ToLower(trimMarkers(line))
	}

	var missing []string
	for _, s := range t.Sections {
		if !hasHeading(lines, s.Title) && (s.Heading == "" || !hasHeading(lines, s.Heading)) {
			missing = append(missing, s.Title)
		}
	}
	return missing
}

func trimMarkers(s string) string {
	return strings.TrimLeft(s, " \t#*_>-•")
}

func hasHeading(lines []string, heading string) bool {
	want := strings.ToLower(strings.TrimSpace(trimMarkers(heading)))
	if want == "" {
		return false
	}
	for _, line := range lines {
		rest, ok := strings.CutPrefix(line, want)
		if !ok {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(rest); rest == "" || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return true
		}
	}
	return false
}

// Parse decodes a template from TOML
func Parse(data []byte) (Template, error) {
	var t Template
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Template{}, fmt.Errorf("decode template: %w", err)
	}
	return t, nil
}

var layout = template.Must(template.New("note").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"heading": func(s Section) string {
		if s.Heading != "" {
			return s.Heading
		}
		return "## " + s.Title
	},
}).Parse(`{{if .Preamble}}{{.Preamble}}

{{end}}{{range .Sections}}{{heading .}}
{{if .Guide}}{{.Guide}}
{{end}}
{{end}}{{if .Directives}}### Critical Requirements:
{{range $i, $d := .Directives}}{{inc $i}}. {{$d}}
{{end}}
{{end}}{{if not .SlotInline}}Transcript:
{{.Slot}}

{{end}}{{if .Closing}}{{.Closing}}
{{end}}`))

type layoutData struct {
	*Template
	Slot       string
	SlotInline bool
}

// compile validates t and freezes its prompt text
func compile(t *Template) error {
	t.ID = strings.TrimSpace(t.ID)
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalid)
	case strings.ContainsAny(t.ID, "@/ "):
		return fmt.Errorf("%w: id %q must not contain '@', '/' or spaces", ErrInvalid, t.ID)
	case t.Version <= 0:
		return fmt.Errorf("%w: %s: version must be positive", ErrInvalid, t.ID)
	case len(t.Sections) == 0:
		return fmt.Errorf("%w: %s: at least one section is required", ErrInvalid, t.Key())
	}
	for i, s := range t.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: %s: section %d has no title", ErrInvalid, t.Key(), i+1)
		}
	}
	if strings.Contains(t.System, Slot) {
		return fmt.Errorf("%w: %s: system text must not contain the transcript slot", ErrInvalid, t.Key())
	}

	data := layoutData{Template: t, Slot: Slot, SlotInline: mentionsSlot(t)}
	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return fmt.Errorf("render template %s: %w", t.Key(), err)
	}
	text := strings.TrimSpace(buf.String())

	if n := strings.Count(text, Slot); n != 1 {
		return fmt.Errorf("%w: %s: transcript slot must appear exactly once, found %d", ErrInvalid, t.Key(), n)
	}

	sum := sha256.Sum256([]byte(t.System + "\x00" + text))
	t.compiled = text
	t.fingerprint = hex.EncodeToString(sum[:])
	return nil
}

func mentionsSlot(t *Template) bool {
	if strings.Contains(t.Preamble, Slot) || strings.Contains(t.Closing, Slot) {
		return true
	}
	for _, d := range t.Directives {
		if strings.Contains(d, Slot) {
			return true
		}
	}
	for _, s := range t.Sections {
		if strings.Contains(s.Guide, Slot) || strings.Contains(s.Heading, Slot) {
			return true
		}
	}
	return false
}
