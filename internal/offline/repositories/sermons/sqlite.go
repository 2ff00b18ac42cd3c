package sermons

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

const sermonColumns = `id, user_id, title, content, outline, scripture, tags, status,
	visibility, date, notes, series_id, created_at, updated_at, deleted_at, synced_at,
	dirty, op, version`

func scanSermon(row interface{ Scan(dest ...any) error }) (*models.Sermon, error) {
	var (
		s                    models.Sermon
		date                 sql.NullInt64
		deletedAt, syncedAt  sql.NullInt64
		createdAt, updatedAt int64
		tags                 string
		dirty                int
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Content, &s.Outline, &s.Scripture,
		&tags, &s.Status, &s.Visibility, &date, &s.Notes, &s.SeriesID,
		&createdAt, &updatedAt, &deletedAt, &syncedAt, &dirty, &s.Op, &s.Version)
	if err != nil {
		return nil, err
	}

	s.Date = timeFromMilliNull(date)
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

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]models.Sermon, error) {
	query := `SELECT ` + sermonColumns + ` FROM sermons
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select sermons: %w", err)
	}
	defer rows.Close()

	var result []models.Sermon
	for rows.Next() {
		s, err := scanSermon(rows)
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

func (r *SQLiteRepository) GetByID(ctx context.Context, userID, id string) (*models.Sermon, error) {
	query := `SELECT ` + sermonColumns + ` FROM sermons
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	s, err := scanSermon(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sermon: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, userID string, input models.CreateSermonInput) (*models.Sermon, error) {
	status := input.Status
	if status == "" {
		status = models.SermonStatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid sermon status %q", status)
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, fmt.Errorf("invalid sermon visibility %q", visibility)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	s := &models.Sermon{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      input.Title,
		Content:    input.Content,
		Outline:    input.Outline,
		Scripture:  input.Scripture,
		Tags:       input.Tags,
		Status:     status,
		Visibility: visibility,
		Date:       input.Date,
		Notes:      input.Notes,
		SeriesID:   input.SeriesID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Dirty:      true,
		Op:         models.OpUpsert,
		Version:    0,
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}

	tags, err := models.MarshalTags(s.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `INSERT INTO sermons (` + sermonColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, 1, 'upsert', 0)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Title, s.Content, s.Outline, s.Scripture,
		tags, s.Status, s.Visibility, milliFromTimeNull(s.Date), s.Notes, s.SeriesID,
		milliFromTime(s.CreatedAt), milliFromTime(s.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert sermon: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userID, id string, input models.UpdateSermonInput) (*models.Sermon, error) {
	s, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		s.Title = *input.Title
	}
	if input.Content != nil {
		s.Content = *input.Content
	}
	if input.Outline != nil {
		s.Outline = *input.Outline
	}
	if input.Scripture != nil {
		s.Scripture = *input.Scripture
	}
	if input.Tags != nil {
		s.Tags = input.Tags
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("invalid sermon status %q", *input.Status)
		}
		s.Status = *input.Status
	}
	if input.Visibility != nil {
		if !input.Visibility.Valid() {
			return nil, fmt.Errorf("invalid sermon visibility %q", *input.Visibility)
		}
		s.Visibility = *input.Visibility
	}
	if input.Date != nil {
		s.Date = clearableTime(input.Date)
	}
	if input.Notes != nil {
		s.Notes = *input.Notes
	}
	if input.SeriesID != nil {
		s.SeriesID = *input.SeriesID
	}

	s.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	s.Version++
	s.Dirty = true
	s.Op = models.OpUpsert

	tags, err := models.MarshalTags(s.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `UPDATE sermons SET title = ?, content = ?, outline = ?, scripture = ?,
		tags = ?, status = ?, visibility = ?, date = ?, notes = ?, series_id = ?,
		updated_at = ?, dirty = 1, op = 'upsert', version = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		s.Title, s.Content, s.Outline, s.Scripture,
		tags, s.Status, s.Visibility, milliFromTimeNull(s.Date), s.Notes, s.SeriesID,
		milliFromTime(s.UpdatedAt), s.Version,
		id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update sermon: %w", err)
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
	query := `UPDATE sermons SET deleted_at = ?, updated_at = ?, dirty = 1, op = 'delete',
		version = version + 1
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, now, now, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sermon: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListDirty(ctx context.Context, userID string) ([]*models.Sermon, error) {
	query := `SELECT ` + sermonColumns + ` FROM sermons WHERE user_id = ? AND dirty = 1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select dirty sermons: %w", err)
	}
	defer rows.Close()

	var result []*models.Sermon
	for rows.Next() {
		s, err := scanSermon(rows)
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
	query := `UPDATE sermons SET dirty = 0, synced_at = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, milliFromTime(at), id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark sermon synced: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, s *models.Sermon) error {
	tags, err := models.MarshalTags(s.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	syncedAt := milliFromTime(time.Now().UTC().Truncate(time.Millisecond))
	query := `INSERT INTO sermons (` + sermonColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 'upsert', ?)
		ON CONFLICT(id, user_id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			outline = excluded.outline,
			scripture = excluded.scripture,
			tags = excluded.tags,
			status = excluded.status,
			visibility = excluded.visibility,
			date = excluded.date,
			notes = excluded.notes,
			series_id = excluded.series_id,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			synced_at = excluded.synced_at,
			dirty = 0,
			op = 'upsert',
			version = excluded.version`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Title, s.Content, s.Outline, s.Scripture,
		tags, s.Status, s.Visibility, milliFromTimeNull(s.Date), s.Notes, s.SeriesID,
		milliFromTime(s.CreatedAt), milliFromTime(s.UpdatedAt),
		milliFromTimeNull(s.DeletedAt), syncedAt, s.Version)
	if err != nil {
		return fmt.Errorf("failed to apply remote sermon: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sermons WHERE user_id = ? AND deleted_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sermons: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MigrateToUser(ctx context.Context, fromUserID, toUserID string) (*models.MigrationOutcome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM sermons WHERE user_id = ? AND deleted_at IS NULL`, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to select sermons to migrate: %w", err)
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
				fmt.Sprintf("sermon %s: %v", id, err))
		}
	}
	return outcome, nil
}

func (r *SQLiteRepository) migrateOne(ctx context.Context, id, fromUserID, toUserID string, outcome *models.MigrationOutcome) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sermons WHERE id = ? AND user_id = ?`, id, toUserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("collision check failed: %w", err)
	}

	newID := id
	if exists > 0 {
		newID = uuid.NewString()
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE sermons SET id = ?, user_id = ?, dirty = 1, op = 'upsert', version = version + 1
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

func (r *SQLiteRepository) RemapSeriesRefs(ctx context.Context, userID string, remap map[string]string) error {
	for oldID, newID := range remap {
		_, err := r.db.ExecContext(ctx,
			`UPDATE sermons SET series_id = ?, dirty = 1, op = 'upsert', version = version + 1
			 WHERE user_id = ? AND series_id = ? AND deleted_at IS NULL`,
			newID, userID, oldID)
		if err != nil {
			return fmt.Errorf("failed to remap series ref %s: %w", oldID, err)
		}
	}
	return nil
}
