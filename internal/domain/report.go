package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReceiptStatusUnderReview is the status of every freshly accepted report.
const ReceiptStatusUnderReview = "Under Review"

// Location is where the hazard was observed. Address is either typed by the
// reporter or derived from device coordinates.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// HasCoordinates reports whether a coordinate pair was captured.
func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// MediaRef describes an attached file. File contents are never retained.
type MediaRef struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ContactInfo is how officials can follow up with the reporter.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email"`
}

// Report is a hazard report. While a wizard holds it, it is the mutable draft.
type Report struct {
	Type        HazardType  `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Location    Location    `json:"location"`
	Media       []MediaRef  `json:"media"`
	ContactInfo ContactInfo `json:"contact_info"`
}

// NewDraft returns a report with defaults, pre-filling contact details from
// the reporter's identity.
func NewDraft(reporter Identity) Report {
	return Report{
		Severity: SeverityMedium,
		Media:    []MediaRef{},
		ContactInfo: ContactInfo{
			Name:  reporter.Name,
			Email: reporter.Email,
		},
	}
}

// Clone returns a deep copy so callers cannot alias the media slice.
func (r Report) Clone() Report {
	out := r
	out.Media = append([]MediaRef{}, r.Media...)
	return out
}

// MissingFields lists required fields that are still empty, in form order.
func (r Report) MissingFields() []string {
	var missing []string
	if r.Type == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(r.Location.Address) == "" {
		missing = append(missing, "location.address")
	}
	if strings.TrimSpace(r.ContactInfo.Name) == "" {
		missing = append(missing, "contactInfo.name")
	}
	if strings.TrimSpace(r.ContactInfo.Email) == "" {
		missing = append(missing, "contactInfo.email")
	}
	return missing
}

// Validate returns ErrValidationFailed naming every missing required field,
// or describing coordinates that cannot be plotted.
func (r Report) Validate() error {
	if missing := r.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidationFailed, strings.Join(missing, ", "))
	}
	return Coordinates{Latitude: r.Location.Latitude, Longitude: r.Location.Longitude}.Validate()
}

// Receipt is the immutable record returned once a report is accepted.
type Receipt struct {
	ReportID    string     `json:"report_id"`
	Type        HazardType `json:"type"`
	Severity    Severity   `json:"severity"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// NewReceipt mints the receipt for report accepted at t.
func NewReceipt(report Report, t time.Time) Receipt {
	return Receipt{
		ReportID:    NewReportID(t),
		Type:        report.Type,
		Severity:    report.Severity,
		Status:      ReceiptStatusUnderReview,
		SubmittedAt: t.UTC(),
	}
}

// NewReportID formats the display ID for a report accepted at t.
func NewReportID(t time.Time) string {
	return fmt.Sprintf("HR-%06d", t.UnixMilli()%1_000_000)
}

// Submission is a report on its way to a sink, tagged with who sent it.
type Submission struct {
	ReporterID string  `json:"reporter_id"`
	Report     Report  `json:"report"`
	Receipt    Receipt `json:"receipt"`
}
