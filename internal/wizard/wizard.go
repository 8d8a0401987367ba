// Package wizard implements the four-step hazard report form as a state
// machine: Details, then Location & Media, then Contact Info, then Complete.
//
// A Wizard owns one draft. Every mutation goes through the wizard's mutex, and
// once a wizard is closed no operation (including a submission that was in
// flight) changes it again.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Step is a wizard position. Steps are numbered from 1 as shown to reporters.
type Step int

const (
	StepDetails Step = iota + 1
	StepLocationMedia
	StepContactInfo
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepLocationMedia:
		return "location_media"
	case StepContactInfo:
		return "contact_info"
	case StepComplete:
		return "complete"
	default:
		return "step_" + strconv.Itoa(int(s))
	}
}

// ErrNoTransition is returned when Next or Back has nowhere to go from the
// current step.
var ErrNoTransition = errors.New("no transition from current step")

// Submitter hands a finished draft to the submission service.
type Submitter interface {
	Submit(ctx context.Context, reporterID string, report domain.Report) (domain.Receipt, error)
}

// Snapshot is a point-in-time copy of a wizard's state.
type Snapshot struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Step       Step            `json:"step"`
	StepName   string          `json:"step_name"`
	Draft      domain.Report   `json:"draft"`
	Missing    []string        `json:"missing,omitempty"`
	Submitting bool            `json:"submitting"`
	Progress   int             `json:"progress"`
	Receipt    *domain.Receipt `json:"receipt,omitempty"`
	LastError  string          `json:"last_error,omitempty"`
	Closed     bool            `json:"closed"`

	Err error `json:"-"`
}

// Wizard drives a single hazard report from first field to receipt.
type Wizard struct {
	id        string
	owner     domain.Identity
	submitter Submitter
	geocoder  domain.Geocoder
	policy    MediaPolicy
	clock     clockwork.Clock
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	onClose   func(*Wizard)

	// ctx is cancelled by Close and parents every submission.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	step       Step
	draft      domain.Report
	submitting bool
	progress   int
	receipt    *domain.Receipt
	lastErr    error
	closed     bool
	// gen identifies the current submission so stale goroutines stand down.
	gen  int
	done chan struct{}
}

// Option customizes a Wizard.
type Option func(*Wizard)

// WithGeocoder resolves device coordinates to a place name. Without one the
// coordinate string is used as the address.
func WithGeocoder(g domain.Geocoder) Option {
	return func(w *Wizard) { w.geocoder = g }
}

func WithMediaPolicy(p MediaPolicy) Option {
	return func(w *Wizard) { w.policy = p }
}

func WithClock(c clockwork.Clock) Option {
	return func(w *Wizard) { w.clock = c }
}

// WithProgressInterval sets how often submission progress advances.
func WithProgressInterval(d time.Duration) Option {
	return func(w *Wizard) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(w *Wizard) { w.metrics = m }
}

// WithOnClose registers a callback run exactly once when the wizard closes.
func WithOnClose(f func(*Wizard)) Option {
	return func(w *Wizard) { w.onClose = f }
}

func WithID(id string) Option {
	return func(w *Wizard) { w.id = id }
}

// New opens a wizard at the Details step with a default draft for owner.
func New(owner domain.Identity, submitter Submitter, logger *slog.Logger, opts ...Option) *Wizard {
	w := &Wizard{
		id:        uuid.NewString(),
		owner:     owner,
		submitter: submitter,
		policy:    DefaultMediaPolicy(),
		clock:     domain.Clock(),
		interval:  200 * time.Millisecond,
		logger:    logger,
		step:      StepDetails,
		draft:     domain.NewDraft(owner),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.logger = w.logger.With("wizard_id", w.id)
	if w.metrics != nil {
		w.metrics.WizardsOpen.Inc()
	}
	return w
}

func (w *Wizard) ID() string { return w.id }

// Owner is the identity the wizard was opened for.
func (w *Wizard) Owner() domain.Identity { return w.owner }

// Snapshot returns a copy of the wizard's current state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Wizard) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:         w.id,
		OwnerID:    w.owner.ID,
		Step:       w.step,
		StepName:   w.step.String(),
		Draft:      w.draft.Clone(),
		Missing:    w.draft.MissingFields(),
		Submitting: w.submitting,
		Progress:   w.progress,
		Closed:     w.closed,
		Err:        w.lastErr,
	}
	if w.receipt != nil {
		r := *w.receipt
		s.Receipt = &r
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}

// Next advances one step when the current step's required fields are set.
// It does not leave Contact Info; Submit does that.
func (w *Wizard) Next() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditableLocked(); err != nil {
		return w.snapshotLocked(), err
	}
	var to Step
	switch w.step {
	case StepDetails:
		to = StepLocationMedia
	case StepLocationMedia:
		to = StepContactInfo
	default:
		return w.snapshotLocked(), fmt.Errorf("%w: next from %s", ErrNoTransition, w.step)
	}
	if err := w.guardLocked(w.step); err != nil {
		return w.snapshotLocked(), err
	}
	w.moveLocked(to)
	return w.snapshotLocked(), nil
}

// Back returns to the previous step. Nothing is required to go back, but a
// wizard that is submitting or complete stays put.
func (w *Wizard) Back() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditableLocked(); err != nil {
		return w.snapshotLocked(), err
	}
	switch w.step {
	case StepLocationMedia:
		w.moveLocked(StepDetails)
	case StepContactInfo:
		w.moveLocked(StepLocationMedia)
	default:
		return w.snapshotLocked(), fmt.Errorf("%w: back from %s", ErrNoTransition, w.step)
	}
	return w.snapshotLocked(), nil
}

// Reset starts another report after a completed one. The fresh draft takes
// its contact details from the owner's identity again.
func (w *Wizard) Reset() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return w.snapshotLocked(), fmt.Errorf("%w: closed", domain.ErrWizardLocked)
	}
	if w.step != StepComplete {
		return w.snapshotLocked(), fmt.Errorf("%w: reset from %s", ErrNoTransition, w.step)
	}
	w.draft = domain.NewDraft(w.owner)
	w.receipt = nil
	w.lastErr = nil
	w.progress = 0
	w.moveLocked(StepDetails)
	return w.snapshotLocked(), nil
}

// Close disposes the wizard and cancels any in-flight submission. It is safe
// to call more than once.
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.submitting = false
	w.mu.Unlock()

	w.cancel()
	if w.metrics != nil {
		w.metrics.WizardsOpen.Dec()
	}
	w.logger.Debug("wizard closed")
	if w.onClose != nil {
		w.onClose(w)
	}
}

// guardLocked checks the required fields for leaving step forward.
func (w *Wizard) guardLocked(step Step) error {
	var missing []string
	switch step {
	case StepDetails:
		if w.draft.Type == "" {
			missing = append(missing, "type")
		}
		if isBlank(w.draft.Description) {
			missing = append(missing, "description")
		}
	case StepLocationMedia:
		if isBlank(w.draft.Location.Address) {
			missing = append(missing, "location.address")
		}
	case StepContactInfo:
		if isBlank(w.draft.ContactInfo.Name) {
			missing = append(missing, "contactInfo.name")
		}
		if isBlank(w.draft.ContactInfo.Email) {
			missing = append(missing, "contactInfo.email")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if w.metrics != nil {
		w.metrics.GuardRejections.WithLabelValues(step.String()).Inc()
	}
	return fmt.Errorf("%w: missing %s", domain.ErrValidationFailed, joinFields(missing))
}

func (w *Wizard) moveLocked(to Step) {
	if w.metrics != nil {
		w.metrics.WizardStep.WithLabelValues(w.step.String(), to.String()).Inc()
	}
	w.logger.Debug("wizard step", "from", w.step.String(), "to", to.String())
	w.step = to
}

// checkEditableLocked refuses changes while submitting, after completion, or
// once closed.
func (w *Wizard) checkEditableLocked() error {
	switch {
	case w.closed:
		return fmt.Errorf("%w: closed", domain.ErrWizardLocked)
	case w.submitting:
		return fmt.Errorf("%w: submitting", domain.ErrWizardLocked)
	case w.step == StepComplete:
		return fmt.Errorf("%w: complete", domain.ErrWizardLocked)
	}
	return nil
}
