package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/dbx"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const profileColumns = `user_id, display_name, church, bio, created_at, updated_at,
	synced_at, dirty, op, version`

func scanProfile(row interface{ Scan(dest ...any) error }) (*models.Profile, error) {
	var (
		p                    models.Profile
		syncedAt             sql.NullInt64
		createdAt, updatedAt int64
		dirty                int
	)
	err := row.Scan(&p.UserID, &p.DisplayName, &p.Church, &p.Bio,
		&createdAt, &updatedAt, &syncedAt, &dirty, &p.Op, &p.Version)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if syncedAt.Valid {
		t := time.UnixMilli(syncedAt.Int64).UTC()
		p.SyncedAt = &t
	}
	p.Dirty = dirty != 0
	return &p, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ?`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, userID string, input models.UpsertProfileInput) (*models.Profile, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	p, err := r.Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		p = &models.Profile{
			UserID:    userID,
			CreatedAt: now,
			Version:   -1, // bumped to 0 below on first write
		}
	} else if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		p.DisplayName = *input.DisplayName
	}
	if input.Church != nil {
		p.Church = *input.Church
	}
	if input.Bio != nil {
		p.Bio = *input.Bio
	}
	p.UpdatedAt = now
	p.Version++
	p.Dirty = true
	p.Op = models.OpUpsert

	query := `INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, NULL, 1, 'upsert', ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			church = excluded.church,
			bio = excluded.bio,
			updated_at = excluded.updated_at,
			dirty = 1,
			op = 'upsert',
			version = excluded.version`
	_, err = r.db.ExecContext(ctx, query,
		p.UserID, p.DisplayName, p.Church, p.Bio,
		p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(), p.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	p.SyncedAt = nil
	return p, nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, userID string) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ? AND dirty = 1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select dirty profiles: %w", err)
	}
	defer rows.Close()

	var result []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET dirty = 0, synced_at = ? WHERE user_id = ?`,
		at.UTC().UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("failed to mark profile synced: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MigrateToUser(ctx context.Context, fromUserID, toUserID string) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE user_id = ?`, toUserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("collision check failed: %w", err)
	}

	if exists > 0 {
		// the authenticated profile wins; the anonymous one is discarded
		_, err = r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, fromUserID)
		if err != nil {
			return fmt.Errorf("failed to drop anonymous profile: %w", err)
		}
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE profiles SET user_id = ?, dirty = 1, op = 'upsert', version = version + 1
		 WHERE user_id = ?`, toUserID, fromUserID)
	if err != nil {
		return fmt.Errorf("failed to re-own profile: %w", err)
	}
	return nil
}
