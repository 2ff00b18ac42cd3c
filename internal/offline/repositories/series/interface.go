// Package series persists sermon series in the local SQLite store.
package series

import (
	"context"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

// Repository describes CRUD, dirty-tracking, and migration operations for
// Series rows. Every method takes the owning user id explicitly; callers
// resolve the effective identity before calling in.
type Repository interface {
	// List returns all non-deleted series for the user, most recently
	// updated first.
	List(ctx context.Context, userID string) ([]models.Series, error)

	// GetByID returns a single non-deleted series owned by the user, or
	// common.ErrNotFound.
	GetByID(ctx context.Context, userID, id string) (*models.Series, error)

	// Create inserts a new series with a generated id, dirty=1, version=0,
	// op=upsert, and returns the full resulting row.
	Create(ctx context.Context, userID string, input models.CreateSeriesInput) (*models.Series, error)

	// Update applies a partial patch, bumps version and updatedAt, and
	// re-dirties the row. Fails with common.ErrNotFound if no non-deleted
	// row matches id+user.
	Update(ctx context.Context, userID, id string, input models.UpdateSeriesInput) (*models.Series, error)

	// Delete soft-deletes: stamps deletedAt, bumps version, sets dirty=1
	// and op=delete so the tombstone can sync.
	Delete(ctx context.Context, userID, id string) error

	// ListDirty returns every dirty row for the user, tombstones included.
	ListDirty(ctx context.Context, userID string) ([]*models.Series, error)

	// MarkSynced clears the dirty flag and stamps syncedAt.
	MarkSynced(ctx context.Context, userID, id string, at time.Time) error

	// ApplyRemote upserts a row pulled from the remote backend. The result
	// is clean (dirty=0) and stamped syncedAt.
	ApplyRemote(ctx context.Context, s *models.Series) error

	// CountByUser counts non-deleted rows owned by the user.
	CountByUser(ctx context.Context, userID string) (int, error)

	// MigrateToUser re-owns every non-deleted row from one user to another.
	// When the target user already holds a row with the same id, the source
	// row is given a new id before re-owning and the old->new pair is
	// recorded in the outcome's IDRemap.
	MigrateToUser(ctx context.Context, fromUserID, toUserID string) (*models.MigrationOutcome, error)
}
