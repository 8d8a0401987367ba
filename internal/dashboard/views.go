package dashboard

import (
	"github.com/couchcryptid/shore-hazard-service/internal/access"
	"github.com/couchcryptid/shore-hazard-service/internal/domain"
)

// RecentLimit caps the receipts listed on a dashboard.
const RecentLimit = 10

// Dashboard is the landing view for a signed-in reporter. Only the parts that
// apply to the viewer's role are set.
type Dashboard struct {
	View     access.View      `json:"view"`
	Identity domain.Identity  `json:"identity"`
	Recent   []domain.Receipt `json:"recent"`
	Stats    *Stats           `json:"stats,omitempty"`
}

// Stats summarizes the ledger.
type Stats struct {
	Total             int                       `json:"total"`
	ByType            map[domain.HazardType]int `json:"by_type,omitempty"`
	BySeverity        map[domain.Severity]int   `json:"by_severity"`
	UrgentUnderReview int                       `json:"urgent_under_review"`
}

// Marker is one report drawn on the hazard map.
type Marker struct {
	ReportID     string            `json:"report_id"`
	Type         domain.HazardType `json:"type"`
	Severity     domain.Severity   `json:"severity"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	Address      string            `json:"address"`
	RadiusMeters int               `json:"radius_meters"`
}

// DashboardFor composes the dashboard variant for id's role. Citizens see
// their own receipts; officials see everyone's plus severity counts; analysts
// see the aggregate counts.
func (l *Ledger) DashboardFor(id domain.Identity) Dashboard {
	view := access.ViewFor(id.Role)
	d := Dashboard{View: view, Identity: id}

	entries := l.Entries()
	switch view {
	case access.ViewOfficial:
		d.Recent = recent(entries, "")
		stats := summarize(entries, false)
		d.Stats = &stats
	case access.ViewAnalyst:
		stats := summarize(entries, true)
		d.Stats = &stats
	default:
		d.Recent = recent(entries, id.ID)
	}
	return d
}

// Analytics returns the full aggregate counts.
func (l *Ledger) Analytics() Stats {
	return summarize(l.Entries(), true)
}

// Markers returns map markers for every entry with captured coordinates.
func (l *Ledger) Markers() []Marker {
	entries := l.Entries()
	markers := make([]Marker, 0, len(entries))
	for _, e := range entries {
		if !e.Location.HasCoordinates() {
			continue
		}
		markers = append(markers, Marker{
			ReportID:     e.Receipt.ReportID,
			Type:         e.Receipt.Type,
			Severity:     e.Receipt.Severity,
			Latitude:     e.Location.Latitude,
			Longitude:    e.Location.Longitude,
			Address:      e.Location.Address,
			RadiusMeters: e.Receipt.Severity.MarkerRadiusMeters(),
		})
	}
	return markers
}

// recent lists up to RecentLimit receipts, limited to reporterID when set.
func recent(entries []Entry, reporterID string) []domain.Receipt {
	out := []domain.Receipt{}
	for _, e := range entries {
		if reporterID != "" && e.ReporterID != reporterID {
			continue
		}
		out = append(out, e.Receipt)
		if len(out) == RecentLimit {
			break
		}
	}
	return out
}

func summarize(entries []Entry, byType bool) Stats {
	s := Stats{
		Total:      len(entries),
		BySeverity: make(map[domain.Severity]int, len(domain.Severities)),
	}
	for _, sev := range domain.Severities {
		s.BySeverity[sev] = 0
	}
	if byType {
		s.ByType = make(map[domain.HazardType]int, len(domain.HazardTypes))
		for _, h := range domain.HazardTypes {
			s.ByType[h] = 0
		}
	}
	for _, e := range entries {
		s.BySeverity[e.Receipt.Severity]++
		if byType {
			s.ByType[e.Receipt.Type]++
		}
		if e.Receipt.Severity.Urgent() && e.Receipt.Status == domain.ReceiptStatusUnderReview {
			s.UrgentUnderReview++
		}
	}
	return s
}
