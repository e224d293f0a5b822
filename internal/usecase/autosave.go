package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cv-studio/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultAutosaveWindow   = 1000 * time.Millisecond
	DefaultAutosaveAttempts = 3
	DefaultAutosaveBackoff  = time.Second
)

type SaveState string

const (
	StateIdle    SaveState = "idle"
	StatePending SaveState = "pending"
	StateSaving  SaveState = "saving"
	StateSaved   SaveState = "saved"
	StateFailed  SaveState = "failed"
)

// SaveStatus is what the editing UI shows next to the form.
type SaveStatus struct {
	State    SaveState  `json:"state"`
	SavedAt  *time.Time `json:"saved_at,omitempty"`
	Error    string     `json:"error,omitempty"`
	Attempts int        `json:"attempts,omitempty"`
}

// DraftSaver is the remote draft endpoint autosave writes to.
type DraftSaver interface {
	SaveDraft(ctx context.Context, ownerID uuid.UUID, doc *model.Document) error
}

type AutosaveOption func(*Autosave)

func WithWindow(d time.Duration) AutosaveOption {
	return func(a *Autosave) { a.window = d }
}

// WithRetry bounds the remote save attempts; the wait doubles after each
// failure starting at backoff.
func WithRetry(attempts int, backoff time.Duration) AutosaveOption {
	return func(a *Autosave) { a.attempts, a.backoff = attempts, backoff }
}

func WithClock(now func() time.Time) AutosaveOption {
	return func(a *Autosave) { a.now = now }
}

func WithLogger(l *zap.Logger) AutosaveOption {
	return func(a *Autosave) { a.log = l }
}

// Autosave coalesces bursts of edits of one owner's draft: only the last
// document seen before the window elapses is written, to the local cache and
// to the remote draft store.
type Autosave struct {
	owner    uuid.UUID
	cache    DraftCache
	remote   DraftSaver
	window   time.Duration
	attempts int
	backoff  time.Duration
	now      func() time.Time
	log      *zap.Logger

	deb    *Debouncer
	ctx    context.Context
	cancel context.CancelFunc

	saveMu sync.Mutex // one write at a time, in edit order

	mu      sync.Mutex
	pending *model.Document
	status  SaveStatus
	closed  bool
}

func NewAutosave(owner uuid.UUID, cache DraftCache, remote DraftSaver, opts ...AutosaveOption) *Autosave {
	a := &Autosave{
		owner:    owner,
		cache:    cache,
		remote:   remote,
		window:   DefaultAutosaveWindow,
		attempts: DefaultAutosaveAttempts,
		backoff:  DefaultAutosaveBackoff,
		now:      time.Now,
		log:      zap.NewNop(),
		status:   SaveStatus{State: StateIdle},
	}
	for _, o := range opts {
		o(a)
	}
	if a.attempts < 1 {
		a.attempts = 1
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.deb = NewDebouncer(a.window, func() {
		if err := a.save(a.ctx); err != nil {
			a.log.Warn("autosave failed", zap.String("owner_id", a.owner.String()), zap.Error(err))
		}
	})
	return a
}

// Changed records the latest document state and restarts the window. The
// document is copied, so the caller may keep mutating it.
func (a *Autosave) Changed(doc *model.Document) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending = doc.Clone()
	a.status.State = StatePending
	a.status.Error = ""
	a.mu.Unlock()
	a.deb.Arm()
}

// Flush writes the pending document now instead of waiting for the window.
func (a *Autosave) Flush(ctx context.Context) error {
	a.deb.Cancel()
	return a.save(ctx)
}

// Close drops the pending document and the timer, aborts retries in flight
// and waits for a running write to return. Nothing is written afterwards.
func (a *Autosave) Close() {
	a.mu.Lock()
	a.closed = true
	a.pending = nil
	a.mu.Unlock()
	a.cancel()
	a.deb.Stop()
}

func (a *Autosave) Status() SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.status
	if s.SavedAt != nil {
		t := *s.SavedAt
		s.SavedAt = &t
	}
	return s
}

func (a *Autosave) save(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	doc := a.pending
	if doc == nil || a.closed {
		a.mu.Unlock()
		return nil
	}
	a.pending = nil
	a.status.State = StateSaving
	a.status.Error = ""
	a.status.Attempts = 0
	a.mu.Unlock()

	attempts, err := a.persist(ctx, doc)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Attempts = attempts
	if err != nil {
		a.status.State = StateFailed
		a.status.Error = err.Error()
		if a.pending == nil && !a.closed {
			// keep the unsaved document for the next Flush
			a.pending = doc
		}
	} else {
		at := a.now()
		a.status.State = StateSaved
		a.status.SavedAt = &at
	}
	if a.pending != nil {
		// a newer edit arrived while writing; its timer is already armed
		a.status.State = StatePending
	}
	return err
}

func (a *Autosave) persist(ctx context.Context, doc *model.Document) (int, error) {
	if a.cache != nil {
		if err := a.cache.Put(ctx, a.owner, doc); err != nil {
			// the cache is a convenience copy; the remote draft is what counts
			a.log.Warn("draft cache write failed", zap.String("owner_id", a.owner.String()), zap.Error(err))
		}
	}
	if a.remote == nil {
		return 0, nil
	}

	var lastErr error
	for i := 0; i < a.attempts; i++ {
		err := a.remote.SaveDraft(ctx, a.owner, doc)
		if err == nil {
			return i + 1, nil
		}
		lastErr = err
		a.log.Debug("remote draft save failed",
			zap.String("owner_id", a.owner.String()),
			zap.Int("attempt", i+1),
			zap.Error(err))
		// exponential backoff before retrying
		if i < a.attempts-1 {
			backoff := a.backoff * time.Duration(1<<i)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return i + 1, ctx.Err()
			}
		}
	}
	return a.attempts, fmt.Errorf("save draft after %d attempts: %w", a.attempts, lastErr)
}
