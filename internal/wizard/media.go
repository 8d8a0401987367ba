package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
)

// DefaultMediaMaxBytes is the largest attachment accepted by default (10 MiB).
const DefaultMediaMaxBytes int64 = 10 << 20

// MediaPolicy decides which attachments a draft accepts.
type MediaPolicy struct {
	Enabled  bool
	MaxBytes int64
}

// DefaultMediaPolicy accepts images and videos up to DefaultMediaMaxBytes.
func DefaultMediaPolicy() MediaPolicy {
	return MediaPolicy{Enabled: true, MaxBytes: DefaultMediaMaxBytes}
}

// Check returns ErrMediaRejected when f is not an image or video or is too
// large. A disabled policy accepts everything.
func (p MediaPolicy) Check(f domain.MediaRef) error {
	if !p.Enabled {
		return nil
	}
	ct := strings.ToLower(f.ContentType)
	if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") {
		return fmt.Errorf("%w: %s: content type %q is not an image or video", domain.ErrMediaRejected, f.Name, f.ContentType)
	}
	if p.MaxBytes > 0 && f.Size > p.MaxBytes {
		return fmt.Errorf("%w: %s: %d bytes exceeds limit of %d", domain.ErrMediaRejected, f.Name, f.Size, p.MaxBytes)
	}
	return nil
}

// AttachMedia appends files to the draft in order. Files the policy refuses
// are skipped and reported together in the returned error; the rest are
// still attached.
func (w *Wizard) AttachMedia(files ...domain.MediaRef) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditableLocked(); err != nil {
		return w.snapshotLocked(), err
	}
	var rejected []error
	for _, f := range files {
		if err := w.policy.Check(f); err != nil {
			rejected = append(rejected, err)
			continue
		}
		w.draft.Media = append(w.draft.Media, f)
	}
	if len(rejected) > 0 {
		if w.metrics != nil {
			w.metrics.MediaRejected.Add(float64(len(rejected)))
		}
		w.logger.Info("media rejected", "count", len(rejected))
		return w.snapshotLocked(), errors.Join(rejected...)
	}
	return w.snapshotLocked(), nil
}

// RemoveMedia drops the attachment at index. It reports false, without
// changing anything, when index is out of range or the wizard is locked.
func (w *Wizard) RemoveMedia(index int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditableLocked(); err != nil {
		w.logger.Warn("remove media refused", "index", index, "error", err)
		return false
	}
	if index < 0 || index >= len(w.draft.Media) {
		w.logger.Warn("remove media index out of range", "index", index, "count", len(w.draft.Media))
		return false
	}
	w.draft.Media = append(w.draft.Media[:index:index], w.draft.Media[index+1:]...)
	return true
}
