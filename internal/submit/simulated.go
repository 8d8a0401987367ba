package submit

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// SimulatedSink stands in for a real backend: it accepts every submission
// after a fixed delay on its clock.
type SimulatedSink struct {
	delay  time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSimulatedSink creates a sink that waits delay before accepting. A nil
// clock uses the package default.
func NewSimulatedSink(delay time.Duration, clock clockwork.Clock, logger *slog.Logger) *SimulatedSink {
	if clock == nil {
		clock = domain.Clock()
	}
	return &SimulatedSink{delay: delay, clock: clock, logger: logger}
}

func (s *SimulatedSink) Deliver(ctx context.Context, sub domain.Submission) error {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.delay):
		}
	}
	s.logger.Debug("simulated delivery", "report_id", sub.Receipt.ReportID)
	return nil
}
