package wizard

import (
	"context"
	"fmt"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
)

// RequestDeviceLocation asks locator for one position fix and, on success,
// overwrites the draft's coordinates and address. A failed fix returns
// ErrLocationUnavailable and leaves the location untouched so the reporter
// can type an address instead.
func (w *Wizard) RequestDeviceLocation(ctx context.Context, locator domain.Locator) (Snapshot, error) {
	w.mu.Lock()
	if err := w.checkEditableLocked(); err != nil {
		defer w.mu.Unlock()
		return w.snapshotLocked(), err
	}
	w.mu.Unlock()

	coords, err := locator.Locate(ctx)
	if err != nil {
		w.logger.Warn("device location unavailable", "error", err)
		return w.Snapshot(), fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	if err := coords.Validate(); err != nil {
		w.logger.Warn("device reported an impossible fix", "error", err)
		return w.Snapshot(), fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	address, source := domain.ResolveAddress(ctx, coords, w.geocoder, w.logger)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return w.snapshotLocked(), err
	}
	w.draft.Location = domain.Location{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Address:   address,
	}
	w.logger.Debug("device location captured", "address_source", source)
	return w.snapshotLocked(), nil
}
