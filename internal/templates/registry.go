package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/logger"
)

// Ref names a template; Version 0 means the latest published version
type Ref struct {
	ID      string
	Version int
}

func (r Ref) String() string {
	if r.Version == 0 {
		return r.ID + "@latest"
	}
	return fmt.Sprintf("%s@%d", r.ID, r.Version)
}

// ParseRef parses "soap", "soap@2" or "soap@latest"
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty template reference")
	}
	id, ver, found := strings.Cut(s, "@")
	if id = strings.TrimSpace(id); id == "" {
		return Ref{}, fmt.Errorf("missing template id in %q", s)
	}
	if !found || ver == "latest" {
		return Ref{ID: id}, nil
	}
	n, err := strconv.Atoi(ver)
	if err != nil || n <= 0 {
		return Ref{}, fmt.Errorf("invalid template version in %q", s)
	}
	return Ref{ID: id, Version: n}, nil
}

// Registry stores published templates. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]map[int]*Template
	log  *logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		byID: make(map[string]map[int]*Template),
		log:  log.Named("templates"),
	}
}

// NewDefaultRegistry creates a registry holding the built-in templates
func NewDefaultRegistry(log *logger.Logger) (*Registry, error) {
	r := NewRegistry(log)
	if err := r.RegisterBuiltins(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register publishes t. Publishing the same content again is a no-op;
// different content under an existing id and version returns ErrConflict.
func (r *Registry) Register(t Template) error {
	t.Sections = append([]Section(nil), t.Sections...)
	t.Directives = append([]string(nil), t.Directives...)
	if err := compile(&t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	versions, ok := r.byID[t.ID]
	if !ok {
		versions = make(map[int]*Template)
		r.byID[t.ID] = versions
	}
	if existing, ok := versions[t.Version]; ok {
		if existing.fingerprint == t.fingerprint {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrConflict, t.Key())
	}

	versions[t.Version] = &t
	r.log.Info("template published",
		logger.String("template", t.Key()),
		logger.Int("sections", len(t.Sections)))
	return nil
}

// Resolve returns the template for ref. Unknown ids or versions are kinded
// unknown_template; no other template is substituted.
func (r *Registry) Resolve(ref Ref) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.byID[ref.ID]
	if !ok || len(versions) == 0 {
		return nil, apperr.Newf(apperr.UnknownTemplate, "no template with id %q", ref.ID)
	}
	if ref.Version == 0 {
		latest := 0
		for v := range versions {
			if v > latest {
				latest = v
			}
		}
		return versions[latest], nil
	}
	t, ok := versions[ref.Version]
	if !ok {
		return nil, apperr.Newf(apperr.UnknownTemplate, "template %s is not published", ref)
	}
	return t, nil
}

// List returns all published templates ordered by id, then version
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Template
	for _, versions := range r.byID {
		for _, t := range versions {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// LoadFile parses and publishes one TOML template file
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := r.Register(t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadDir publishes every *.toml file in dir and returns how many loaded.
// All files are attempted; errors are joined.
func (r *Registry) LoadDir(dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}
	sort.Strings(paths)

	loaded := 0
	var errs []error
	for _, p := range paths {
		if err := r.LoadFile(p); err != nil {
			r.log.Warn("template rejected", logger.String("path", p), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}
