package series

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/dbx"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const seriesColumns = `id, user_id, title, description, start_date, end_date, image_url,
	tags, status, created_at, updated_at, deleted_at, synced_at, dirty, op, version`

func scanSeries(row interface{ Scan(dest ...any) error }) (*models.Series, error) {
	var (
		s                    models.Series
		startDate, endDate   sql.NullInt64
		deletedAt, syncedAt  sql.NullInt64
		createdAt, updatedAt int64
		tags                 string
		dirty                int
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &startDate, &endDate,
		&s.ImageURL, &tags, &s.Status, &createdAt, &updatedAt, &deletedAt, &syncedAt,
		&dirty, &s.Op, &s.Version)
	if err != nil {
		return nil, err
	}

	s.StartDate = timeFromMilliNull(startDate)
	s.EndDate = timeFromMilliNull(endDate)
	s.DeletedAt = timeFromMilliNull(deletedAt)
	s.SyncedAt = timeFromMilliNull(syncedAt)
	s.CreatedAt = timeFromMilli(createdAt)
	s.UpdatedAt = timeFromMilli(updatedAt)
	s.Dirty = dirty != 0

	if s.Tags, err = models.UnmarshalTags(tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return &s, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select series: %w", err)
	}
	defer rows.Close()

	var result []models.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, userID, id string) (*models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	s, err := scanSeries(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, userID string, input models.CreateSeriesInput) (*models.Series, error) {
	status := input.Status
	if status == "" {
		status = models.SeriesStatusPlanning
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid series status %q", status)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	s := &models.Series{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		ImageURL:    input.ImageURL,
		Tags:        input.Tags,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		Dirty:       true,
		Op:          models.OpUpsert,
		Version:     0,
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}

	tags, err := models.MarshalTags(s.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `INSERT INTO series (` + seriesColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, 1, 'upsert', 0)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Title, s.Description,
		milliFromTimeNull(s.StartDate), milliFromTimeNull(s.EndDate),
		s.ImageURL, tags, s.Status, milliFromTime(s.CreatedAt), milliFromTime(s.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert series: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userID, id string, input models.UpdateSeriesInput) (*models.Series, error) {
	s, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		s.Title = *input.Title
	}
	if input.Description != nil {
		s.Description = *input.Description
	}
	if input.StartDate != nil {
		s.StartDate = clearableTime(input.StartDate)
	}
	if input.EndDate != nil {
		s.EndDate = clearableTime(input.EndDate)
	}
	if input.ImageURL != nil {
		s.ImageURL = *input.ImageURL
	}
	if input.Tags != nil {
		s.Tags = input.Tags
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("invalid series status %q", *input.Status)
		}
		s.Status = *input.Status
	}

	s.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	s.Version++
	s.Dirty = true
	s.Op = models.OpUpsert

	tags, err := models.MarshalTags(s.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `UPDATE series SET title = ?, description = ?, start_date = ?, end_date = ?,
		image_url = ?, tags = ?, status = ?, updated_at = ?, dirty = 1, op = 'upsert', version = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		s.Title, s.Description,
		milliFromTimeNull(s.StartDate), milliFromTimeNull(s.EndDate),
		s.ImageURL, tags, s.Status, milliFromTime(s.UpdatedAt), s.Version,
		id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update series: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return nil, common.ErrNotFound
	}
	return s, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	now := milliFromTime(time.Now().UTC().Truncate(time.Millisecond))
	query := `UPDATE series SET deleted_at = ?, updated_at = ?, dirty = 1, op = 'delete',
		version = version + 1
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, now, now, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, userID string) ([]*models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series WHERE user_id = ? AND dirty = 1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select dirty series: %w", err)
	}
	defer rows.Close()

	var result []*models.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, userID, id string, at time.Time) error {
	query := `UPDATE series SET dirty = 0, synced_at = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, milliFromTime(at), id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark series synced: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, s *models.Series) error {
	tags, err := models.MarshalTags(s.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	syncedAt := milliFromTime(time.Now().UTC().Truncate(time.Millisecond))
	query := `INSERT INTO series (` + seriesColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 'upsert', ?)
		ON CONFLICT(id, user_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			image_url = excluded.image_url,
			tags = excluded.tags,
			status = excluded.status,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			synced_at = excluded.synced_at,
			dirty = 0,
			op = 'upsert',
			version = excluded.version`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Title, s.Description,
		milliFromTimeNull(s.StartDate), milliFromTimeNull(s.EndDate),
		s.ImageURL, tags, s.Status,
		milliFromTime(s.CreatedAt), milliFromTime(s.UpdatedAt),
		milliFromTimeNull(s.DeletedAt), syncedAt, s.Version)
	if err != nil {
		return fmt.Errorf("failed to apply remote series: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM series WHERE user_id = ? AND deleted_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count series: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MigrateToUser(ctx context.Context, fromUserID, toUserID string) (*models.MigrationOutcome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM series WHERE user_id = ? AND deleted_at IS NULL`, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to select series to migrate: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	outcome := &models.MigrationOutcome{IDRemap: map[string]string{}}
	for _, id := range ids {
		if err := r.migrateOne(ctx, id, fromUserID, toUserID, outcome); err != nil {
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("series %s: %v", id, err))
		}
	}
	return outcome, nil
}

// migrateOne re-owns a single row. A row already present under the target
// user with the same id is a conflict: the target row stays untouched and
// the source row gets a fresh id before re-owning.
func (r *SQLiteRepository) migrateOne(ctx context.Context, id, fromUserID, toUserID string, outcome *models.MigrationOutcome) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM series WHERE id = ? AND user_id = ?`, id, toUserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("collision check failed: %w", err)
	}

	newID := id
	if exists > 0 {
		newID = uuid.NewString()
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE series SET id = ?, user_id = ?, dirty = 1, op = 'upsert', version = version + 1
		 WHERE id = ? AND user_id = ?`, newID, toUserID, id, fromUserID)
	if err != nil {
		return fmt.Errorf("re-own failed: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}

	outcome.Migrated++
	if exists > 0 {
		outcome.Conflicts++
		outcome.IDRemap[id] = newID
	}
	return nil
}
