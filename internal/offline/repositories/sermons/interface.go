// Package sermons persists sermons in the local SQLite store.
package sermons

import (
	"context"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

// Repository describes CRUD, dirty-tracking, and migration operations for
// Sermon rows. Every method takes the owning user id explicitly; callers
// resolve the effective identity before calling in.
//
// The contracts mirror the series repository; see that package for the
// shared semantics (soft deletes, dirty metadata, explicit scope).
type Repository interface {
	List(ctx context.Context, userID string) ([]models.Sermon, error)
	GetByID(ctx context.Context, userID, id string) (*models.Sermon, error)
	Create(ctx context.Context, userID string, input models.CreateSermonInput) (*models.Sermon, error)
	Update(ctx context.Context, userID, id string, input models.UpdateSermonInput) (*models.Sermon, error)
	Delete(ctx context.Context, userID, id string) error

	ListDirty(ctx context.Context, userID string) ([]*models.Sermon, error)
	MarkSynced(ctx context.Context, userID, id string, at time.Time) error
	ApplyRemote(ctx context.Context, s *models.Sermon) error

	CountByUser(ctx context.Context, userID string) (int, error)
	MigrateToUser(ctx context.Context, fromUserID, toUserID string) (*models.MigrationOutcome, error)

	// RemapSeriesRefs rewrites series_id references after a series
	// migration handed out replacement ids. Affected sermons are
	// re-dirtied so the new linkage syncs.
	RemapSeriesRefs(ctx context.Context, userID string, remap map[string]string) error
}
