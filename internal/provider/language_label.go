package provider

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/leonardotrapani/soapscribe/internal/language"
)

// LanguageLabel describes a transcription language tag for error messages,
// using the name from the supported language table and the region when one
// is spelled out. Example: "pt-BR" -> "Portuguese (Brazil) [pt]".
func LanguageLabel(tag string) string {
	if strings.TrimSpace(tag) == "" {
		return "auto-detect"
	}

	t, err := xlanguage.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return fmt.Sprintf("unknown language %q", tag)
	}
	base, _ := t.Base()
	code := base.String()
	if !language.IsValidCode(code) {
		return fmt.Sprintf("unsupported language %q", tag)
	}

	name := language.FromCode(code).Name
	if region, conf := t.Region(); conf == xlanguage.Exact {
		if r := display.English.Regions().Name(region); r != "" {
			name = fmt.Sprintf("%s (%s)", name, r)
		}
	}
	return fmt.Sprintf("%s [%s]", name, code)
}
