package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotFound is returned for wizards that do not exist or belong to
	// someone else.
	ErrNotFound = errors.New("wizard not found")

	// ErrTooManyWizards is returned by Open when the owner already has the
	// maximum number of wizards open.
	ErrTooManyWizards = errors.New("too many open wizards")
)

// RegistryConfig bounds how many wizards a registry keeps. Zero values
// disable the matching limit.
type RegistryConfig struct {
	MaxPerOwner int
	// IdleTimeout closes wizards nobody has looked up for this long.
	IdleTimeout time.Duration
	// Clock drives idle tracking. It is also handed to every wizard.
	Clock   clockwork.Clock
	Metrics *observability.Metrics
}

// Registry tracks the open wizards of every signed-in reporter.
type Registry struct {
	submitter Submitter
	logger    *slog.Logger
	cfg       RegistryConfig
	clock     clockwork.Clock
	opts      []Option

	mu      sync.Mutex
	wizards map[string]*entry
}

type entry struct {
	w        *Wizard
	lastUsed time.Time
}

// NewRegistry creates a registry whose wizards share submitter and opts.
func NewRegistry(submitter Submitter, logger *slog.Logger, cfg RegistryConfig, opts ...Option) *Registry {
	clock := cfg.Clock
	if clock == nil {
		clock = domain.Clock()
	}
	shared := []Option{WithClock(clock)}
	if cfg.Metrics != nil {
		shared = append(shared, WithMetrics(cfg.Metrics))
	}
	return &Registry{
		submitter: submitter,
		logger:    logger,
		cfg:       cfg,
		clock:     clock,
		opts:      append(shared, opts...),
		wizards:   make(map[string]*entry),
	}
}

// Open starts a new wizard for owner. Closing it removes it from the registry.
func (r *Registry) Open(owner domain.Identity, opts ...Option) (*Wizard, error) {
	all := make([]Option, 0, len(r.opts)+len(opts)+1)
	all = append(all, r.opts...)
	all = append(all, opts...)
	all = append(all, WithOnClose(r.forget))

	r.mu.Lock()
	defer r.mu.Unlock()
	if limit := r.cfg.MaxPerOwner; limit > 0 && r.countLocked(owner.ID) >= limit {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyWizards, limit)
	}
	w := New(owner, r.submitter, r.logger, all...)
	r.wizards[w.ID()] = &entry{w: w, lastUsed: r.clock.Now()}
	r.logger.Debug("wizard opened", "wizard_id", w.ID(), "owner_id", owner.ID)
	return w, nil
}

// Get returns the wizard id if it belongs to ownerID and marks it as used.
func (r *Registry) Get(id, ownerID string) (*Wizard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.wizards[id]
	if !ok || e.w.Owner().ID != ownerID {
		return nil, ErrNotFound
	}
	e.lastUsed = r.clock.Now()
	return e.w, nil
}

// Close disposes the wizard id if it belongs to ownerID.
func (r *Registry) Close(id, ownerID string) error {
	w, err := r.Get(id, ownerID)
	if err != nil {
		return err
	}
	w.Close()
	return nil
}

// CloseOwner disposes every wizard belonging to ownerID, as on sign-out.
func (r *Registry) CloseOwner(ownerID string) int {
	owned := r.collect(func(e *entry) bool { return e.w.Owner().ID == ownerID })
	for _, w := range owned {
		w.Close()
	}
	return len(owned)
}

// CloseAll disposes every wizard, cancelling in-flight submissions.
func (r *Registry) CloseAll() {
	for _, w := range r.collect(func(*entry) bool { return true }) {
		w.Close()
	}
}

// EvictIdle closes wizards unused for longer than the idle timeout and
// returns how many it closed. A wizard with a submission in flight is left
// alone until the submission ends.
func (r *Registry) EvictIdle() int {
	if r.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.cfg.IdleTimeout)
	stale := r.collect(func(e *entry) bool { return e.lastUsed.Before(cutoff) })

	n := 0
	for _, w := range stale {
		if w.Snapshot().Submitting {
			continue
		}
		w.Close()
		n++
	}
	if n > 0 {
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.WizardsEvicted.Add(float64(n))
		}
		r.logger.Info("evicted idle wizards", "count", n)
	}
	return n
}

// Run evicts idle wizards every half idle timeout until ctx ends. It returns
// immediately when idle eviction is disabled.
func (r *Registry) Run(ctx context.Context) {
	if r.cfg.IdleTimeout <= 0 {
		return
	}
	ticker := r.clock.NewTicker(r.cfg.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.EvictIdle()
		}
	}
}

// Len reports how many wizards are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.wizards)
}

func (r *Registry) countLocked(ownerID string) int {
	n := 0
	for _, e := range r.wizards {
		if e.w.Owner().ID == ownerID {
			n++
		}
	}
	return n
}

func (r *Registry) collect(match func(*entry) bool) []*Wizard {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Wizard
	for _, e := range r.wizards {
		if match(e) {
			out = append(out, e.w)
		}
	}
	return out
}

func (r *Registry) forget(w *Wizard) {
	r.mu.Lock()
	delete(r.wizards, w.ID())
	r.mu.Unlock()
}
