// Package refresh decides when a preview is regenerated. Edits are
// debounced and every refresh carries a token; only the newest token is
// ever allowed to reach the sandbox or to end the refreshing state.
package refresh

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/clock"
	"github.com/codegram/codegram/internal/metrics"
	"github.com/codegram/codegram/internal/preview"
)

// DefaultDebounce is the quiet period after the last edit before a
// refresh fires.
const DefaultDebounce = 300 * time.Millisecond

// Loader puts a generated document on screen and reports completion.
// Supersede is called as soon as a token is issued, before its debounce
// elapses, so a load still settling for an older token is abandoned.
// *sandbox.Host implements it.
type Loader interface {
	Load(doc string, token uint64, done func(token uint64))
	Supersede(token uint64)
}

// State is the observable controller state.
type State struct {
	Refreshing bool   `json:"refreshing"`
	Seq        uint64 `json:"seq"`
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Debounce time.Duration
	Clock    clock.Clock
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Controller moves between Idle and Refreshing. Each Update or Refresh
// issues a new token; a refresh that has been overtaken is never applied.
type Controller struct {
	loader   Loader
	debounce time.Duration
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	src        preview.SourceDocument
	seq        uint64
	refreshing bool
	timer      clock.Timer
	closed     bool
	observers  []func(State)
}

// New creates an idle Controller feeding loader.
func New(loader Loader, opts Options) *Controller {
	c := &Controller{
		loader:   loader,
		debounce: opts.Debounce,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if c.debounce <= 0 {
		c.debounce = DefaultDebounce
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Observe registers fn to receive every state transition. Observers are
// called without the controller lock held, possibly from timer goroutines.
func (c *Controller) Observe(fn func(State)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Refreshing: c.refreshing, Seq: c.seq}
}

// Source returns the latest input.
func (c *Controller) Source() preview.SourceDocument {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src
}

// Update records src as the latest input and schedules a refresh.
func (c *Controller) Update(src preview.SourceDocument) {
	c.schedule(&src)
}

// Refresh schedules a refresh of the latest input, as the manual refresh
// control does.
func (c *Controller) Refresh() {
	c.schedule(nil)
}

func (c *Controller) schedule(src *preview.SourceDocument) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if src != nil {
		c.src = *src
	}
	c.seq++
	token := c.seq
	c.refreshing = true
	c.loader.Supersede(token)
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(token) })
	state, observers := c.snapshotLocked()
	c.mu.Unlock()

	c.metrics.RecordRefreshRequest()
	notify(observers, state)
}

func (c *Controller) fire(token uint64) {
	c.mu.Lock()
	if c.closed || token != c.seq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	src := c.src
	c.mu.Unlock()

	doc := preview.Generate(src)
	c.metrics.RecordDocument(string(src.Tag))
	c.logger.Debug("refresh: loading document",
		zap.Uint64("token", token),
		zap.String("tag", string(src.Tag)),
		zap.Int("bytes", len(doc)))
	c.loader.Load(doc, token, c.done)
}

func (c *Controller) done(token uint64) {
	c.mu.Lock()
	if c.closed || token != c.seq {
		c.mu.Unlock()
		return
	}
	c.refreshing = false
	state, observers := c.snapshotLocked()
	c.mu.Unlock()

	notify(observers, state)
}

// Close stops the debounce timer. Later timer fires and load completions
// are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) snapshotLocked() (State, []func(State)) {
	observers := make([]func(State), len(c.observers))
	copy(observers, c.observers)
	return State{Refreshing: c.refreshing, Seq: c.seq}, observers
}

func notify(observers []func(State), s State) {
	for _, fn := range observers {
		fn(s)
	}
}
