// Package profiles persists the per-user preacher profile in the local store.
package profiles

import (
	"context"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

// Repository stores one profile row per user identity.
type Repository interface {
	// Get returns the user's profile or common.ErrNotFound.
	Get(ctx context.Context, userID string) (*models.Profile, error)

	// Upsert creates the profile on first write and patches it afterwards,
	// stamping the usual dirty metadata either way.
	Upsert(ctx context.Context, userID string, input models.UpsertProfileInput) (*models.Profile, error)

	ListDirty(ctx context.Context, userID string) ([]*models.Profile, error)
	MarkSynced(ctx context.Context, userID string, at time.Time) error

	// MigrateToUser re-keys the profile row to a new identity. An existing
	// profile under the target identity wins; the source row is dropped in
	// that case (profile fields are re-enterable, unlike sermon content).
	MigrateToUser(ctx context.Context, fromUserID, toUserID string) error
}
