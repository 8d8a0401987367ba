package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Address sources reported by ResolveAddress.
const (
	AddressSourceReverse     = "reverse"
	AddressSourceCoordinates = "coordinates"
	AddressSourceFailed      = "failed"
)

// CoordinateAddress formats coordinates as the fallback address string.
func CoordinateAddress(c Coordinates) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", c.Latitude, c.Longitude)
}

// ResolveAddress picks an address for device coordinates. If geocoder is nil
// or the lookup fails, the coordinate string is used (graceful degradation).
// The second return value names where the address came from.
func ResolveAddress(ctx context.Context, c Coordinates, geocoder Geocoder, logger *slog.Logger) (string, string) {
	if geocoder == nil {
		return CoordinateAddress(c), AddressSourceCoordinates
	}

	place, err := geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", c.Latitude,
			"lon", c.Longitude,
			"error", err,
		)
		return CoordinateAddress(c), AddressSourceFailed
	}
	if place.Address == "" {
		return CoordinateAddress(c), AddressSourceCoordinates
	}
	return place.Address, AddressSourceReverse
}
