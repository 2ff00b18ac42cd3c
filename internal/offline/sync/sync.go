// Package sync pushes locally dirty rows to the remote backend and applies
// remote changes locally, resolving conflicts when both sides changed the
// same record.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/logging"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/conflict"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/remote"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/series"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/sermons"
)

// IdentitySource resolves the user identity a sync run is scoped to.
// Implemented by the identity resolver.
type IdentitySource interface {
	EffectiveUserID(ctx context.Context) (string, error)
}

// Result summarizes one sync run. Per-row failures land in Errors; the run
// itself keeps going.
type Result struct {
	Pushed    int
	Pulled    int
	Conflicts int
	Errors    []string
}

// Service synchronizes series and sermons with the remote backend. Callers
// decide when to sync (explicitly, on reconnect, after login); the service
// never runs on its own timer.
type Service struct {
	series   series.Repository
	sermons  sermons.Repository
	remote   remote.Client
	identity IdentitySource
	strategy conflict.Strategy
	logger   logging.Logger
}

func NewService(seriesRepo series.Repository, sermonRepo sermons.Repository,
	rc remote.Client, ids IdentitySource, logger logging.Logger) *Service {
	return &Service{
		series:   seriesRepo,
		sermons:  sermonRepo,
		remote:   rc,
		identity: ids,
		strategy: conflict.NewestWins,
		logger:   logger,
	}
}

// SetStrategy overrides the conflict strategy used on pull. The default is
// newest wins.
func (s *Service) SetStrategy(strategy conflict.Strategy) {
	s.strategy = strategy
}

// Sync runs one push/pull cycle for every entity kind. It returns an error
// only when no sync could be attempted at all (identity resolution failed);
// everything row-scoped is accumulated in the result.
func (s *Service) Sync(ctx context.Context) (*Result, error) {
	userID, err := s.identity.EffectiveUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sync identity: %w", err)
	}

	res := &Result{}
	s.syncSeries(ctx, userID, res)
	s.syncSermons(ctx, userID, res)

	s.logger.Info(ctx, "sync complete", "userId", userID,
		"pushed", res.Pushed, "pulled", res.Pulled,
		"conflicts", res.Conflicts, "errors", len(res.Errors))
	return res, nil
}

func (s *Service) syncSeries(ctx context.Context, userID string, res *Result) {
	dirty, err := s.series.ListDirty(ctx, userID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list dirty series: %v", err))
	}
	for _, d := range dirty {
		if err := s.pushSeries(ctx, d); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("push series %s: %v", d.ID, err))
			continue
		}
		if err := s.series.MarkSynced(ctx, userID, d.ID, time.Now()); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("mark series %s synced: %v", d.ID, err))
			continue
		}
		res.Pushed++
	}

	records, err := s.remote.ListSeries(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("pull series: %v", err))
		return
	}

	// Rows whose push failed above are still dirty and must not be
	// silently overwritten by the pull.
	stillDirty, err := s.series.ListDirty(ctx, userID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list dirty series: %v", err))
		return
	}
	dirtyByID := make(map[string]*models.Series, len(stillDirty))
	for _, d := range stillDirty {
		dirtyByID[d.ID] = d
	}

	for _, rec := range records {
		pulled := rec.ToModel(userID)
		if local, ok := dirtyByID[rec.ID]; ok {
			res.Conflicts++
			decision := conflict.ResolveSeries(local, pulled, s.strategy)
			s.logger.Debug(ctx, "series conflict resolved", "id", rec.ID,
				"outcome", decision.Outcome, "reason", decision.Reason)
			if decision.Outcome != conflict.KeepRemote {
				// The dirty local row stays and wins on the next push.
				continue
			}
		}
		if err := s.series.ApplyRemote(ctx, pulled); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("apply series %s: %v", rec.ID, err))
			continue
		}
		res.Pulled++
	}
}

func (s *Service) pushSeries(ctx context.Context, d *models.Series) error {
	if d.Op == models.OpDelete {
		return s.remote.DeleteSeries(ctx, d.ID)
	}
	return s.remote.PushSeries(ctx, remote.SeriesFromModel(d))
}

func (s *Service) syncSermons(ctx context.Context, userID string, res *Result) {
	dirty, err := s.sermons.ListDirty(ctx, userID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list dirty sermons: %v", err))
	}
	for _, d := range dirty {
		if err := s.pushSermon(ctx, d); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("push sermon %s: %v", d.ID, err))
			continue
		}
		if err := s.sermons.MarkSynced(ctx, userID, d.ID, time.Now()); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("mark sermon %s synced: %v", d.ID, err))
			continue
		}
		res.Pushed++
	}

	records, err := s.remote.ListSermons(ctx)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("pull sermons: %v", err))
		return
	}

	stillDirty, err := s.sermons.ListDirty(ctx, userID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list dirty sermons: %v", err))
		return
	}
	dirtyByID := make(map[string]*models.Sermon, len(stillDirty))
	for _, d := range stillDirty {
		dirtyByID[d.ID] = d
	}

	for _, rec := range records {
		pulled := rec.ToModel(userID)
		if local, ok := dirtyByID[rec.ID]; ok {
			res.Conflicts++
			decision := conflict.ResolveSermon(local, pulled, s.strategy)
			s.logger.Debug(ctx, "sermon conflict resolved", "id", rec.ID,
				"outcome", decision.Outcome, "reason", decision.Reason)
			if decision.Outcome != conflict.KeepRemote {
				continue
			}
		}
		if err := s.sermons.ApplyRemote(ctx, pulled); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("apply sermon %s: %v", rec.ID, err))
			continue
		}
		res.Pulled++
	}
}

func (s *Service) pushSermon(ctx context.Context, d *models.Sermon) error {
	if d.Op == models.OpDelete {
		return s.remote.DeleteSermon(ctx, d.ID)
	}
	return s.remote.PushSermon(ctx, remote.SermonFromModel(d))
}
