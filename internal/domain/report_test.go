package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraft_Defaults(t *testing.T) {
	reporter := NewIdentity("id-1", "priya.nair@example.com", nil)

	draft := NewDraft(reporter)

	assert.Empty(t, draft.Type)
	assert.Equal(t, SeverityMedium, draft.Severity)
	assert.Empty(t, draft.Description)
	assert.Equal(t, Location{}, draft.Location)
	assert.Empty(t, draft.Media)
	assert.Equal(t, ContactInfo{Name: "Priya Nair", Email: "priya.nair@example.com"}, draft.ContactInfo)
}

func TestReport_Validate(t *testing.T) {
	var r Report
	err := r.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Contains(t, err.Error(), "type, description, location.address, contactInfo.name, contactInfo.email")

	r = Report{
		Type:        HazardTsunamiWarning,
		Severity:    SeverityCritical,
		Description: "x",
		Location:    Location{Address: "y"},
		ContactInfo: ContactInfo{Name: "A", Email: "a@b.com"},
	}
	require.NoError(t, r.Validate())

	r.Location.Latitude = 91
	assert.ErrorIs(t, r.Validate(), ErrValidationFailed)
	r.Location.Latitude = 0

	r.Description = "   "
	assert.ErrorIs(t, r.Validate(), ErrValidationFailed)
}

func TestReport_CloneDoesNotAliasMedia(t *testing.T) {
	r := Report{Media: []MediaRef{{Name: "a.jpg"}}}

	c := r.Clone()
	c.Media[0].Name = "b.jpg"

	assert.Equal(t, "a.jpg", r.Media[0].Name)
}

func TestNewReportID(t *testing.T) {
	ts := time.UnixMilli(1714144200123)
	assert.Equal(t, "HR-200123", NewReportID(ts))

	ts = time.UnixMilli(1714144000042)
	assert.Equal(t, "HR-000042", NewReportID(ts))
}

func TestNewReceipt(t *testing.T) {
	ts := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	r := Report{Type: HazardTsunamiWarning, Severity: SeverityCritical}

	receipt := NewReceipt(r, ts)

	assert.Equal(t, NewReportID(ts), receipt.ReportID)
	assert.Equal(t, HazardTsunamiWarning, receipt.Type)
	assert.Equal(t, SeverityCritical, receipt.Severity)
	assert.Equal(t, ReceiptStatusUnderReview, receipt.Status)
	assert.Equal(t, ts, receipt.SubmittedAt)
}

func TestParseHazardType(t *testing.T) {
	h, err := ParseHazardType("Red Tide/Algal Bloom")
	require.NoError(t, err)
	assert.Equal(t, HazardRedTide, h)

	h, err = ParseHazardType("")
	require.NoError(t, err)
	assert.Empty(t, h)

	_, err = ParseHazardType("Sharknado")
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Len(t, HazardTypes, 9)
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, s)
	assert.True(t, s.Urgent())
	assert.False(t, SeverityMedium.Urgent())

	_, err = ParseSeverity("CRITICAL")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSeverity_MarkerRadius(t *testing.T) {
	assert.Equal(t, 15000, SeverityLow.MarkerRadiusMeters())
	assert.Equal(t, 25000, SeverityMedium.MarkerRadiusMeters())
	assert.Equal(t, 35000, SeverityHigh.MarkerRadiusMeters())
	assert.Equal(t, 50000, SeverityCritical.MarkerRadiusMeters())
}
