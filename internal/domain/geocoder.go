package domain

import (
	"context"
	"fmt"
	"math"
)

// Place is what a reverse geocoding provider knows about a point.
type Place struct {
	Address string
}

// Geocoder turns device coordinates into place details. An empty Place with a
// nil error means the provider knows nothing there.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinates) (Place, error)
}

// Coordinates is a WGS-84 fix reported by a device.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects coordinates that are not finite or lie outside
// [-90, 90] latitude and [-180, 180] longitude.
func (c Coordinates) Validate() error {
	if err := CheckLatitude(c.Latitude); err != nil {
		return err
	}
	return CheckLongitude(c.Longitude)
}

// CheckLatitude returns ErrValidationFailed unless v is a finite latitude.
func CheckLatitude(v float64) error { return checkAxis("latitude", v, 90) }

// CheckLongitude returns ErrValidationFailed unless v is a finite longitude.
func CheckLongitude(v float64) error { return checkAxis("longitude", v, 180) }

func checkAxis(name string, v, limit float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrValidationFailed, name)
	}
	if v < -limit || v > limit {
		return fmt.Errorf("%w: %s %g outside [-%g, %g]", ErrValidationFailed, name, v, limit, limit)
	}
	return nil
}

// Locator obtains the device's current position. Implementations make a
// single attempt; a denied permission is an error like any other.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// LocatorFunc adapts a plain function to Locator.
type LocatorFunc func(ctx context.Context) (Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (Coordinates, error) { return f(ctx) }
