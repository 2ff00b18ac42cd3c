// Package migration re-owns all data held by the anonymous identity to an
// authenticated account. It only moves rows; retiring the anonymous identity
// and notifying the backend stay with the identity resolver, so a failed run
// can always be retried.
package migration

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/dbx"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/logging"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/profiles"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/series"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/sermons"
)

// AnonymousIDSource yields the anonymous identity whose rows are up for
// migration. Implemented by the identity resolver.
type AnonymousIDSource interface {
	AnonymousUserID(ctx context.Context) (string, error)
}

// Phase names a stage of a migration run, reported through the progress
// handler.
type Phase string

const (
	PhaseSeries   Phase = "series"
	PhaseSermons  Phase = "sermons"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ProgressFunc receives phase-boundary notifications during a run.
type ProgressFunc func(phase Phase, message string)

// Preview holds read-only counts of what a migration would move.
type Preview struct {
	SeriesCount int
	SermonCount int
}

// Validation is the outcome of a post-migration integrity check.
type Validation struct {
	Valid  bool
	Issues []string
}

// Service orchestrates data migration across the entity repositories. It
// owns the database handle so the whole re-owning run can share one
// transaction: a phase that fails rolls everything back, never leaving rows
// split between two identities.
type Service struct {
	db       *sql.DB
	identity AnonymousIDSource
	logger   logging.Logger
	progress ProgressFunc
}

func NewService(db *sql.DB, ids AnonymousIDSource, logger logging.Logger) *Service {
	return &Service{db: db, identity: ids, logger: logger}
}

// SetProgressHandler registers a callback for phase notifications. The
// handler is per-service, so concurrent services do not share state.
func (s *Service) SetProgressHandler(fn ProgressFunc) {
	s.progress = fn
}

func (s *Service) notify(phase Phase, message string) {
	if s.progress != nil {
		s.progress(phase, message)
	}
}

// HasDataToMigrate reports whether an anonymous identity exists and owns at
// least one series or sermon.
func (s *Service) HasDataToMigrate(ctx context.Context) (bool, error) {
	anonID, err := s.identity.AnonymousUserID(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to resolve anonymous identity: %w", err)
	}
	if anonID == "" {
		return false, nil
	}
	p, err := s.preview(ctx, anonID)
	if err != nil {
		return false, err
	}
	return p.SeriesCount+p.SermonCount > 0, nil
}

// Preview counts the rows a migration would move without touching them.
// Without an anonymous identity the preview is empty.
func (s *Service) Preview(ctx context.Context) (*Preview, error) {
	anonID, err := s.identity.AnonymousUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anonymous identity: %w", err)
	}
	if anonID == "" {
		return &Preview{}, nil
	}
	return s.preview(ctx, anonID)
}

func (s *Service) preview(ctx context.Context, anonID string) (*Preview, error) {
	seriesCount, err := series.NewSQLiteRepository(s.db).CountByUser(ctx, anonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count series: %w", err)
	}
	sermonCount, err := sermons.NewSQLiteRepository(s.db).CountByUser(ctx, anonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sermons: %w", err)
	}
	return &Preview{SeriesCount: seriesCount, SermonCount: sermonCount}, nil
}

// MigrateOfflineDataToAccount re-owns every anonymous series and sermon to
// the authenticated account, series first so id collisions can be remapped
// in sermon references afterwards. The whole run is one transaction;
// per-row failures accumulate in the result without aborting it, but a
// phase that cannot run at all rolls the run back.
func (s *Service) MigrateOfflineDataToAccount(ctx context.Context, authUserID string) (*models.MigrationResult, error) {
	anonID, err := s.identity.AnonymousUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anonymous identity: %w", err)
	}
	if anonID == "" {
		return nil, common.ErrNoAnonymousIdentity
	}

	var result *models.MigrationResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		seriesRepo := series.NewSQLiteRepository(tx)
		sermonRepo := sermons.NewSQLiteRepository(tx)
		profileRepo := profiles.NewSQLiteRepository(tx)

		s.notify(PhaseSeries, "migrating series")
		seriesOutcome, err := seriesRepo.MigrateToUser(ctx, anonID, authUserID)
		if err != nil {
			return fmt.Errorf("failed to migrate series: %w", err)
		}

		s.notify(PhaseSermons, "migrating sermons")
		sermonOutcome, err := sermonRepo.MigrateToUser(ctx, anonID, authUserID)
		if err != nil {
			return fmt.Errorf("failed to migrate sermons: %w", err)
		}

		result = &models.MigrationResult{
			MigratedRecords: seriesOutcome.Migrated + sermonOutcome.Migrated,
			Conflicts:       seriesOutcome.Conflicts + sermonOutcome.Conflicts,
		}
		result.Errors = append(result.Errors, seriesOutcome.Errors...)
		result.Errors = append(result.Errors, sermonOutcome.Errors...)

		// Sermons that pointed at a renumbered series must follow it.
		if len(seriesOutcome.IDRemap) > 0 {
			if err := sermonRepo.RemapSeriesRefs(ctx, authUserID, seriesOutcome.IDRemap); err != nil {
				return fmt.Errorf("failed to remap series references: %w", err)
			}
		}

		if err := profileRepo.MigrateToUser(ctx, anonID, authUserID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("migrate profile: %v", err))
		}
		return nil
	})
	if err != nil {
		s.notify(PhaseError, fmt.Sprintf("migration failed: %v", err))
		return nil, err
	}

	s.notify(PhaseComplete, fmt.Sprintf("migrated %d records", result.MigratedRecords))
	s.logger.Info(ctx, "offline data migration finished",
		"anonymousUserId", anonID, "userId", authUserID,
		"migrated", result.MigratedRecords, "conflicts", result.Conflicts,
		"errors", len(result.Errors))
	return result, nil
}

// Validate checks migrated data under the authenticated identity: it flags a
// completely empty account and any sermon whose series reference points at a
// series the account does not hold. Read-only.
func (s *Service) Validate(ctx context.Context, authUserID string) (*Validation, error) {
	seriesRows, err := series.NewSQLiteRepository(s.db).List(ctx, authUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	sermonRows, err := sermons.NewSQLiteRepository(s.db).List(ctx, authUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}

	v := &Validation{Valid: true}
	if len(seriesRows)+len(sermonRows) == 0 {
		v.Valid = false
		v.Issues = append(v.Issues, "no data found for the authenticated user")
		return v, nil
	}

	seriesIDs := make(map[string]bool, len(seriesRows))
	for _, sr := range seriesRows {
		seriesIDs[sr.ID] = true
	}
	for _, sm := range sermonRows {
		if sm.SeriesID != "" && !seriesIDs[sm.SeriesID] {
			v.Valid = false
			v.Issues = append(v.Issues,
				fmt.Sprintf("sermon %s references missing series %s", sm.ID, sm.SeriesID))
		}
	}
	return v, nil
}

// Rollback would undo a migration. Re-owning rows back is unsafe once the
// account has synced, so it is not supported; callers get a descriptive
// error instead of a partial undo.
func (s *Service) Rollback(ctx context.Context, authUserID string) error {
	s.logger.Warn(ctx, "migration rollback requested", "userId", authUserID)
	return fmt.Errorf("rollback of a completed migration is not supported: %w",
		common.ErrRollbackUnsupported)
}
