package templates

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leonardotrapani/soapscribe/internal/logger"
)

// DefaultSettle is how long a template file must go without events before it is loaded
const DefaultSettle = 500 * time.Millisecond

// Watcher publishes template files that appear in a directory at runtime.
// A file is loaded once it has been quiet for Settle, so a file still being
// written is never published half-way. A file whose content conflicts with
// an already published version is rejected and logged; published templates
// are never replaced.
type Watcher struct {
	registry *Registry
	dir      string
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
	log      *logger.Logger

	// Settle is the per-file quiet period before loading
	Settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}

	// OnPublish, when set, is called after each successful load (tests use it)
	OnPublish func(path string, err error)
}

// NewWatcher creates a watcher for dir
func NewWatcher(registry *Registry, dir string, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{
		registry: registry,
		dir:      dir,
		log:      log.Named("template-watcher"),
		Settle:   DefaultSettle,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 16),
		done:     make(chan struct{}),
	}
}

// Start begins watching until ctx is cancelled or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Info("watching template directory", logger.String("dir", w.dir))
	return nil
}

// Stop closes the watcher, drops pending loads and waits for the loop to exit
func (w *Watcher) Stop() {
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// schedule (re)starts the settle timer for path
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) load(path string) {
	err := w.registry.LoadFile(path)
	if err != nil {
		w.log.Warn("template rejected", logger.String("path", path), logger.Error(err))
	}
	if w.OnPublish != nil {
		w.OnPublish(path, err)
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".toml" {
				continue
			}
			// only Write and Create publish; removals never unpublish
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule(ctx, event.Name)

		case path := <-w.ready:
			w.load(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("template watcher error", logger.Error(err))

		case <-ctx.Done():
			return
		}
	}
}
