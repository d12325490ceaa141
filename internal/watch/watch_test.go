package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codegram/codegram/internal/clock"
)

type recorder struct {
	mu      sync.Mutex
	updates []string
	lang    string
	ch      chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) sink(code, language string) {
	r.mu.Lock()
	r.updates = append(r.updates, code)
	r.lang = language
	r.mu.Unlock()
	r.ch <- code
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestNewRejectsMissingAndDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(filepath.Join(dir, "missing.html"), func(string, string) {}, Options{}); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := New(dir, func(string, string) {}, Options{}); err == nil {
		t.Error("expected error for directory")
	}
}

func TestLanguageFallback(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"card.jsx":   "jsx",
		"page.html":  "html",
		"notes.txt":  "html",
		"styles.css": "css",
	}
	for name, want := range cases {
		path := filepath.Join(dir, name)
		writeFile(t, path, "x")
		w, err := New(path, func(string, string) {}, Options{})
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		if w.Language() != want {
			t.Errorf("%s: expected %q, got %q", name, want, w.Language())
		}
	}
}

func TestHandleDebouncesEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.html")
	writeFile(t, path, "<button>v1</button>")

	clk := clock.NewManual()
	rec := newRecorder()
	w, err := New(path, rec.sink, Options{Debounce: 50 * time.Millisecond, Clock: clk})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	clk.Advance(30 * time.Millisecond)
	writeFile(t, path, "<button>v2</button>")
	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	clk.Advance(30 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("expected no push inside the debounce window, got %d", rec.count())
	}

	clk.Advance(30 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("expected 1 push, got %d", rec.count())
	}
	if got := <-rec.ch; got != "<button>v2</button>" {
		t.Errorf("expected latest content, got %q", got)
	}
	if rec.lang != "html" {
		t.Errorf("expected html, got %q", rec.lang)
	}
}

func TestHandleIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.html")
	writeFile(t, path, "x")

	clk := clock.NewManual()
	rec := newRecorder()
	w, err := New(path, rec.sink, Options{Clock: clk})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w.handle(fsnotify.Event{Name: filepath.Join(dir, "other.html"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Chmod})
	if clk.Pending() != 0 {
		t.Errorf("expected nothing scheduled, got %d", clk.Pending())
	}
}

func TestStopWaitsForPushInFlight(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.html")
	writeFile(t, path, "x")

	entered := make(chan struct{})
	release := make(chan struct{})
	var pushes int
	sink := func(string, string) {
		pushes++
		close(entered)
		<-release
	}

	clk := clock.NewManual()
	w, err := New(path, sink, Options{Clock: clk})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	advanced := make(chan struct{})
	go func() {
		defer close(advanced)
		clk.Advance(DefaultDebounce)
	}()
	<-entered

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		w.stop()
	}()
	select {
	case <-stopped:
		t.Fatal("expected stop to wait for the running push")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-advanced
	<-stopped

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	clk.Advance(DefaultDebounce)
	if pushes != 1 {
		t.Errorf("expected no push after stop, got %d pushes", pushes)
	}
}

func TestRunPushesInitialAndChangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.html")
	writeFile(t, path, "<div>one</div>")

	rec := newRecorder()
	w, err := New(path, rec.sink, Options{Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case got := <-rec.ch:
		if got != "<div>one</div>" {
			t.Fatalf("expected initial content, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial push")
	}

	writeFile(t, path, "<div>two</div>")
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-rec.ch:
			if got == "<div>two</div>" {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Run: %v", err)
				}
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("timed out waiting for changed content")
		}
	}
}
