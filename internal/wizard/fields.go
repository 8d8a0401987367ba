package wizard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
)

// Field paths accepted by SetField.
const (
	FieldType         = "type"
	FieldSeverity     = "severity"
	FieldDescription  = "description"
	FieldLatitude     = "location.latitude"
	FieldLongitude    = "location.longitude"
	FieldAddress      = "location.address"
	FieldContactName  = "contactInfo.name"
	FieldContactPhone = "contactInfo.phone"
	FieldContactEmail = "contactInfo.email"
)

// Fields lists every settable path in form order.
var Fields = []string{
	FieldType,
	FieldSeverity,
	FieldDescription,
	FieldLatitude,
	FieldLongitude,
	FieldAddress,
	FieldContactName,
	FieldContactPhone,
	FieldContactEmail,
}

// SetField writes one draft field. Values are coerced to the field's type:
// text fields take strings, coordinates take numbers or numeric strings, and
// type and severity must name a catalog entry. Setting the same value twice
// has no further effect.
func (w *Wizard) SetField(path string, value any) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditableLocked(); err != nil {
		return w.snapshotLocked(), err
	}
	if err := setField(&w.draft, path, value); err != nil {
		return w.snapshotLocked(), err
	}
	return w.snapshotLocked(), nil
}

func setField(r *domain.Report, path string, value any) error {
	switch path {
	case FieldType:
		s, err := asString(path, value)
		if err != nil {
			return err
		}
		t, err := domain.ParseHazardType(s)
		if err != nil {
			return err
		}
		r.Type = t
	case FieldSeverity:
		s, err := asString(path, value)
		if err != nil {
			return err
		}
		sev, err := domain.ParseSeverity(s)
		if err != nil {
			return err
		}
		r.Severity = sev
	case FieldLatitude, FieldLongitude:
		f, err := asFloat(path, value)
		if err != nil {
			return err
		}
		if path == FieldLatitude {
			if err := domain.CheckLatitude(f); err != nil {
				return err
			}
			r.Location.Latitude = f
		} else {
			if err := domain.CheckLongitude(f); err != nil {
				return err
			}
			r.Location.Longitude = f
		}
	case FieldDescription, FieldAddress, FieldContactName, FieldContactPhone, FieldContactEmail:
		s, err := asString(path, value)
		if err != nil {
			return err
		}
		*textField(r, path) = s
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, path)
	}
	return nil
}

func textField(r *domain.Report, path string) *string {
	switch path {
	case FieldDescription:
		return &r.Description
	case FieldAddress:
		return &r.Location.Address
	case FieldContactName:
		return &r.ContactInfo.Name
	case FieldContactPhone:
		return &r.ContactInfo.Phone
	default:
		return &r.ContactInfo.Email
	}
}

func asString(path string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be text, got %T", domain.ErrValidationFailed, path, value)
	}
}

func asFloat(path string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrValidationFailed, path, err)
		}
		return f, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrValidationFailed, path, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", domain.ErrValidationFailed, path, value)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func joinFields(fields []string) string {
	return strings.Join(fields, ", ")
}
