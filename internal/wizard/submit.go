package wizard

import (
	"context"
	"fmt"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
)

const (
	progressStep = 10
	progressCap  = 90
)

type attempt struct {
	gen    int
	ctx    context.Context
	cancel context.CancelFunc
	report domain.Report
	done   chan struct{}
}

// Submit sends the draft and blocks until the submission service answers or
// ctx ends. On success the wizard moves to Complete with a receipt; on
// failure it stays on Contact Info with LastError set.
func (w *Wizard) Submit(ctx context.Context) (Snapshot, error) {
	a, snap, err := w.begin()
	if err != nil {
		return snap, err
	}
	stop := context.AfterFunc(ctx, a.cancel)
	defer stop()
	return w.run(a)
}

// SubmitAsync checks and starts a submission, then returns while it runs.
// Progress and the outcome show up in later snapshots; Done signals the end.
func (w *Wizard) SubmitAsync() (Snapshot, error) {
	a, snap, err := w.begin()
	if err != nil {
		return snap, err
	}
	go w.run(a) //nolint:errcheck // outcome is recorded on the wizard
	return snap, nil
}

// Done returns a channel closed when the latest submission has finished. It
// is already closed if no submission was ever started.
func (w *Wizard) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return w.done
}

func (w *Wizard) begin() (attempt, Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditableLocked(); err != nil {
		return attempt{}, w.snapshotLocked(), err
	}
	if w.step != StepContactInfo {
		return attempt{}, w.snapshotLocked(), fmt.Errorf("%w: submit from %s", ErrNoTransition, w.step)
	}
	if err := w.guardLocked(StepContactInfo); err != nil {
		return attempt{}, w.snapshotLocked(), err
	}

	w.gen++
	w.submitting = true
	w.progress = 0
	w.lastErr = nil
	w.done = make(chan struct{})

	ctx, cancel := context.WithCancel(w.ctx)
	a := attempt{
		gen:    w.gen,
		ctx:    ctx,
		cancel: cancel,
		report: w.draft.Clone(),
		done:   w.done,
	}
	w.logger.Info("submitting report", "type", a.report.Type, "severity", a.report.Severity)
	return a, w.snapshotLocked(), nil
}

func (w *Wizard) run(a attempt) (Snapshot, error) {
	defer close(a.done)
	defer a.cancel()

	ticker := w.clock.NewTicker(w.interval)
	stopTicks := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.Chan():
				w.advanceProgress(a.gen)
			case <-stopTicks:
				return
			}
		}
	}()

	receipt, err := w.submitter.Submit(a.ctx, w.owner.ID, a.report)
	close(stopTicks)
	ticker.Stop()

	return w.finish(a.gen, receipt, err)
}

func (w *Wizard) advanceProgress(gen int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || gen != w.gen || !w.submitting {
		return
	}
	w.progress = min(w.progress+progressStep, progressCap)
}

func (w *Wizard) finish(gen int, receipt domain.Receipt, err error) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || gen != w.gen {
		w.logger.Debug("submission finished after wizard closed", "error", err)
		return w.snapshotLocked(), fmt.Errorf("%w: closed during submission", domain.ErrWizardLocked)
	}
	w.submitting = false
	if err != nil {
		w.progress = 0
		w.lastErr = err
		w.logger.Warn("report submission failed", "error", err)
		return w.snapshotLocked(), err
	}
	w.progress = 100
	w.receipt = &receipt
	w.moveLocked(StepComplete)
	w.logger.Info("report accepted", "report_id", receipt.ReportID)
	return w.snapshotLocked(), nil
}
