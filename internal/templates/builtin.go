package templates

import (
	"embed"
	"fmt"
	"path"
)

//go:embed builtin/*.toml
var builtinFS embed.FS

// RegisterBuiltins publishes the embedded templates
func (r *Registry) RegisterBuiltins() error {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return fmt.Errorf("read builtin templates: %w", err)
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return fmt.Errorf("read builtin %s: %w", e.Name(), err)
		}
		t, err := Parse(data)
		if err != nil {
			return fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		if err := r.Register(t); err != nil {
			return fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
	}
	return nil
}
