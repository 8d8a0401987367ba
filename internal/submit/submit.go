// Package submit delivers hazard reports to a sink with validation,
// per-attempt timeouts, and retries.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Sink delivers an accepted submission to a backend.
type Sink interface {
	Deliver(ctx context.Context, s domain.Submission) error
}

// Recorder is told about every successful submission.
type Recorder interface {
	Record(s domain.Submission)
}

// ReadinessChecker is implemented by sinks that can report their health.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Service validates and delivers reports.
type Service struct {
	sink        Sink
	recorder    Recorder
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

// Option customizes a Service.
type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithMaxAttempts sets how many deliveries are tried before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackoff sets the first retry delay and its cap.
func WithBackoff(initial, maxBackoff time.Duration) Option {
	return func(s *Service) {
		s.backoff = initial
		s.maxBackoff = maxBackoff
	}
}

// New creates a Service delivering to sink.
func New(sink Sink, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		sink:        sink,
		clock:       domain.Clock(),
		logger:      logger,
		metrics:     metrics,
		timeout:     10 * time.Second,
		maxAttempts: 3,
		// Exponential backoff: start at 200ms, double each retry, cap at 5s.
		backoff:    200 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckReadiness reports the sink's readiness when the sink can tell.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if rc, ok := s.sink.(ReadinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// Submit validates report and delivers it, retrying transient failures.
//
// Errors wrap one of domain.ErrValidationFailed (never retried),
// domain.ErrSubmissionFailed or domain.ErrTimeout (retried until attempts run
// out), or the context's error when ctx ends first.
func (s *Service) Submit(ctx context.Context, reporterID string, report domain.Report) (domain.Receipt, error) {
	if err := report.Validate(); err != nil {
		s.observe("validation", 0)
		return domain.Receipt{}, err
	}

	start := s.clock.Now()
	sub := domain.Submission{
		ReporterID: reporterID,
		Report:     report.Clone(),
		Receipt:    domain.NewReceipt(report, start),
	}

	backoff := s.backoff
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.deliver(ctx, sub)
		if err == nil {
			s.observe("success", s.clock.Since(start))
			if s.recorder != nil {
				s.recorder.Record(sub)
			}
			s.logger.Info("report submitted",
				"report_id", sub.Receipt.ReportID,
				"type", report.Type,
				"severity", report.Severity,
				"attempts", attempt,
			)
			return sub.Receipt, nil
		}

		if ctx.Err() != nil {
			s.observe("cancelled", s.clock.Since(start))
			return domain.Receipt{}, ctx.Err()
		}
		if errors.Is(err, domain.ErrValidationFailed) {
			s.observe("validation", s.clock.Since(start))
			return domain.Receipt{}, err
		}

		lastErr = err
		s.logger.Warn("submission attempt failed",
			"report_id", sub.Receipt.ReportID,
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
			"error", err,
		)
		if attempt == s.maxAttempts {
			break
		}
		if !s.sleep(ctx, backoff) {
			s.observe("cancelled", s.clock.Since(start))
			return domain.Receipt{}, ctx.Err()
		}
		backoff = nextBackoff(backoff, s.maxBackoff)
	}

	if errors.Is(lastErr, domain.ErrTimeout) {
		s.observe("timeout", s.clock.Since(start))
	} else {
		s.observe("failed", s.clock.Since(start))
	}
	s.logger.Error("submission failed", "report_id", sub.Receipt.ReportID, "error", lastErr)
	return domain.Receipt{}, fmt.Errorf("after %d attempts: %w", s.maxAttempts, lastErr)
}

// deliver makes one bounded attempt and classifies its failure.
func (s *Service) deliver(ctx context.Context, sub domain.Submission) error {
	if s.metrics != nil {
		s.metrics.SubmitAttempts.Inc()
	}
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.sink.Deliver(attemptCtx, sub)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrSubmissionFailed),
		errors.Is(err, domain.ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}
}

func (s *Service) observe(outcome string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Submissions.WithLabelValues(outcome).Inc()
	if outcome != "validation" {
		s.metrics.SubmitDuration.Observe(d.Seconds())
	}
}

func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
