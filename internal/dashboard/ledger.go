// Package dashboard keeps recently accepted reports and projects them into
// the role-specific dashboard, map, and analytics views.
package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/observability"
)

// Entry is one accepted report as remembered by the ledger.
type Entry struct {
	ReporterID string          `json:"reporter_id"`
	Receipt    domain.Receipt  `json:"receipt"`
	Location   domain.Location `json:"location"`
}

// Ledger is a bounded, newest-first record of accepted reports.
type Ledger struct {
	size    int
	metrics *observability.Metrics

	mu      sync.RWMutex
	entries []Entry
}

// NewLedger keeps at most size entries. Metrics may be nil.
func NewLedger(size int, metrics *observability.Metrics) *Ledger {
	if size <= 0 {
		size = 500
	}
	return &Ledger{size: size, metrics: metrics}
}

// Record adds an accepted submission as the newest entry.
func (l *Ledger) Record(s domain.Submission) {
	e := Entry{
		ReporterID: s.ReporterID,
		Receipt:    s.Receipt,
		Location:   s.Report.Location,
	}

	l.mu.Lock()
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > l.size {
		l.entries = l.entries[:l.size]
	}
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.ReceiptsRecorded.Inc()
	}
}

// Seed records submissions oldest first, so the last one ends up newest.
func (l *Ledger) Seed(subs []domain.Submission) {
	for _, s := range subs {
		l.Record(s)
	}
}

// SeedFile seeds the ledger from a JSON array of submissions.
func (l *Ledger) SeedFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read ledger seed: %w", err)
	}
	var subs []domain.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return 0, fmt.Errorf("decode ledger seed %s: %w", path, err)
	}
	l.Seed(subs)
	return len(subs), nil
}

// Entries returns a copy of the ledger, newest first.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Len reports how many entries the ledger holds.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
