package domain

import "fmt"

// HazardType is one of the fixed hazard categories a report may carry.
type HazardType string

const (
	HazardTsunamiWarning  HazardType = "Tsunami Warning"
	HazardCoastalFlooding HazardType = "Coastal Flooding"
	HazardStormSurge      HazardType = "Storm Surge"
	HazardHurricane       HazardType = "Hurricane/Typhoon"
	HazardRipCurrent      HazardType = "Rip Current"
	HazardKingTide        HazardType = "King Tide"
	HazardCoastalErosion  HazardType = "Coastal Erosion"
	HazardRedTide         HazardType = "Red Tide/Algal Bloom"
	HazardOther           HazardType = "Other Natural Ocean Disaster"
)

// HazardTypes lists every accepted hazard type in display order.
var HazardTypes = []HazardType{
	HazardTsunamiWarning,
	HazardCoastalFlooding,
	HazardStormSurge,
	HazardHurricane,
	HazardRipCurrent,
	HazardKingTide,
	HazardCoastalErosion,
	HazardRedTide,
	HazardOther,
}

// ParseHazardType returns the hazard type matching s exactly. The empty
// string parses to the unset type.
func ParseHazardType(s string) (HazardType, error) {
	if s == "" {
		return "", nil
	}
	for _, h := range HazardTypes {
		if string(h) == s {
			return h, nil
		}
	}
	return "", fmt.Errorf("%w: unknown hazard type %q", ErrValidationFailed, s)
}

// Severity is the reporter's assessment of a hazard's impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists the scale from least to most severe.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity returns the severity named by s.
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range Severities {
		if string(sev) == s {
			return sev, nil
		}
	}
	return "", fmt.Errorf("%w: unknown severity %q", ErrValidationFailed, s)
}

// Urgent reports whether the severity warrants the destructive badge
// (high or critical).
func (s Severity) Urgent() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// MarkerRadiusMeters is the map circle radius drawn around a report.
func (s Severity) MarkerRadiusMeters() int {
	switch s {
	case SeverityLow:
		return 15000
	case SeverityHigh:
		return 35000
	case SeverityCritical:
		return 50000
	default:
		return 25000
	}
}
