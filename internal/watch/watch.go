// Package watch pushes a source file into the preview whenever it changes
// on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/clock"
	"github.com/codegram/codegram/internal/walker"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 50 * time.Millisecond

// Sink receives the file content and its editor language.
type Sink func(code, language string)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Watcher follows a single file. It watches the parent directory so that
// editors which save by renaming a temp file over the original are seen.
type Watcher struct {
	path     string
	language string
	sink     Sink
	opts     Options
	logger   *zap.Logger

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
	pushing sync.WaitGroup
}

// New creates a Watcher for path. The language is taken from the file
// extension and falls back to html.
func New(path string, sink Sink, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("watching %s: is a directory", path)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	language := walker.DetectLanguage(abs)
	if language == "" {
		language = "html"
	}
	return &Watcher{
		path:     abs,
		language: language,
		sink:     sink,
		opts:     opts,
		logger:   opts.Logger.With(zap.String("file", abs)),
	}, nil
}

// Language returns the editor language pushed with every update.
func (w *Watcher) Language() string { return w.language }

// Run pushes the current content, then pushes again after every change
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	if err := w.push(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.opts.Clock.AfterFunc(w.opts.Debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.pushing.Add(1)
	w.mu.Unlock()
	defer w.pushing.Done()

	if err := w.push(); err != nil {
		w.logger.Warn("reloading file", zap.Error(err))
	}
}

// stop cancels the debounce timer and waits for a push already under way.
// No push starts afterwards.
func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.pushing.Wait()
}

func (w *Watcher) push() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.path, err)
	}
	w.logger.Debug("file changed", zap.Int("bytes", len(data)))
	w.sink(string(data), w.language)
	return nil
}
