package ports

import (
	"context"

	"github.com/sgirs-cali/portal/internal/core/wizard"
)

// DraftStore keeps a wizard snapshot per user between requests.
type DraftStore interface {
	// Load returns the user's snapshot; found=false when there is none.
	Load(ctx context.Context, userID string) (snap wizard.Snapshot, found bool, err error)
	Save(ctx context.Context, userID string, snap wizard.Snapshot) error
}

// SaveLock serialises every change to a user's draft. A save holds it for
// its whole run, backend calls included.
type SaveLock interface {
	// Acquire returns ok=false when the user's draft is already locked. The
	// token identifies this holder to Release.
	Acquire(ctx context.Context, userID string) (token string, ok bool, err error)
	// Release drops the lock only while token still holds it.
	Release(ctx context.Context, userID, token string) error
}
