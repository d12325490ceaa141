package sandbox

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/clock"
	"github.com/codegram/codegram/internal/metrics"
)

// Placeholder is the empty document a surface shows between two loads.
const Placeholder = "about:blank"

// DefaultSettle is the pause between detaching the old document and
// attaching the new one.
const DefaultSettle = 100 * time.Millisecond

// Surface is an isolated rendering context, typically an iframe in a
// browser tab, that can be pointed at a URL.
type Surface interface {
	Navigate(url string) error
}

// Options configures a Host. Zero values select defaults.
type Options struct {
	Settle  time.Duration
	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Host loads generated documents into a single Surface. It owns the
// surface and the transient document currently shown on it.
type Host struct {
	surface Surface
	store   *Store
	settle  time.Duration
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics

	// nav orders surface navigations and is taken before mu. mu is never
	// held across a Navigate call.
	nav sync.Mutex

	mu      sync.Mutex
	latest  uint64
	liveID  string
	pending clock.Timer
	closed  bool
}

// NewHost creates a Host driving surface and publishing documents in store.
func NewHost(surface Surface, store *Store, opts Options) *Host {
	h := &Host{
		surface: surface,
		store:   store,
		settle:  opts.Settle,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if h.settle <= 0 {
		h.settle = DefaultSettle
	}
	if h.clock == nil {
		h.clock = clock.Real()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Load replaces whatever the surface shows with doc. The surface is first
// pointed at the placeholder and the current document is revoked; after
// the settle delay doc is published and the surface navigates to it, then
// done is called with token.
//
// Tokens must increase. A load whose token has been overtaken by a newer
// load or by Supersede before its settle delay elapses is abandoned, and
// so is every pending load once the host is closed; done is not called
// for either.
func (h *Host) Load(doc string, token uint64, done func(token uint64)) {
	h.nav.Lock()
	defer h.nav.Unlock()

	h.mu.Lock()
	if h.closed || token < h.latest {
		h.mu.Unlock()
		h.metrics.RecordReload(metrics.ReloadDropped)
		return
	}
	h.latest = token
	h.stopPendingLocked()
	if h.liveID != "" {
		h.store.Revoke(h.liveID)
		h.liveID = ""
	}
	h.pending = h.clock.AfterFunc(h.settle, func() {
		if h.attach(doc, token) && done != nil {
			done(token)
		}
	})
	h.mu.Unlock()

	if err := h.surface.Navigate(Placeholder); err != nil {
		h.logger.Debug("sandbox: detach failed", zap.Error(err))
	}
}

// Supersede announces that a load with token has been requested but not
// issued yet. A pending load with an older token is abandoned and the
// surface keeps the placeholder until the newer load arrives.
func (h *Host) Supersede(token uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || token <= h.latest {
		return
	}
	h.latest = token
	h.stopPendingLocked()
}

// stopPendingLocked cancels a pending attach. h.mu must be held.
func (h *Host) stopPendingLocked() {
	if h.pending != nil && h.pending.Stop() {
		h.metrics.RecordReload(metrics.ReloadSuperseded)
	}
	h.pending = nil
}

func (h *Host) attach(doc string, token uint64) bool {
	h.nav.Lock()
	defer h.nav.Unlock()

	h.mu.Lock()
	if h.closed || token != h.latest {
		h.mu.Unlock()
		h.metrics.RecordReload(metrics.ReloadDropped)
		return false
	}
	h.pending = nil
	h.liveID = h.store.Put(doc)
	url := URL(h.liveID)
	h.mu.Unlock()

	if err := h.surface.Navigate(url); err != nil {
		h.logger.Debug("sandbox: load failed", zap.Error(err), zap.Uint64("token", token))
	}
	h.metrics.RecordReload(metrics.ReloadApplied)
	return true
}

// LiveURL returns the URL of the document currently shown, or "" when the
// surface shows the placeholder.
func (h *Host) LiveURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.liveID == "" {
		return ""
	}
	return URL(h.liveID)
}

// Close abandons any pending load and revokes the live document. The
// surface is left untouched; it is usually gone already.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.pending != nil {
		h.pending.Stop()
		h.pending = nil
	}
	if h.liveID != "" {
		h.store.Revoke(h.liveID)
		h.liveID = ""
	}
}
