// Package offline wires the local store, repositories, remote client, and
// services into one data layer the application embeds. It is the single
// composition point: swapping the backing store or the remote transport
// means changing the constructor, not the callers.
package offline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/config"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/logging"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/db"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/identity"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/migration"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/remote"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/metadata"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/profiles"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/series"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/sermons"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/sync"
)

// App is the assembled offline data layer.
type App struct {
	Series   series.Repository
	Sermons  sermons.Repository
	Profiles profiles.Repository
	Metadata metadata.Repository

	Remote    remote.Client
	Identity  *identity.Resolver
	Sync      *sync.Service
	Migration *migration.Service

	db     *sql.DB
	logger logging.Logger
}

// New opens the local database, runs migrations, and wires every component.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	seriesRepo := series.NewSQLiteRepository(database)
	sermonRepo := sermons.NewSQLiteRepository(database)
	profileRepo := profiles.NewSQLiteRepository(database)
	metadataRepo := metadata.NewSQLiteRepository(database)

	rc := remote.NewHTTPClient(cfg.APIEndpoint, cfg.APIToken, cfg.RequestTimeout, cfg.RetryAttempts)

	resolver := identity.NewResolver(metadataRepo, rc, logger)
	migrationSvc := migration.NewService(database, resolver, logger)
	resolver.SetMigrator(migrationSvc)
	syncSvc := sync.NewService(seriesRepo, sermonRepo, rc, resolver, logger)

	return &App{
		Series:    seriesRepo,
		Sermons:   sermonRepo,
		Profiles:  profileRepo,
		Metadata:  metadataRepo,
		Remote:    rc,
		Identity:  resolver,
		Sync:      syncSvc,
		Migration: migrationSvc,
		db:        database,
		logger:    logger,
	}, nil
}

// SetAPIToken updates the bearer token after sign-in so subsequent remote
// calls run as the authenticated user.
func (a *App) SetAPIToken(token string) {
	if hc, ok := a.Remote.(*remote.HTTPClient); ok {
		hc.SetToken(token)
	}
}

// Close releases the remote client and the local database.
func (a *App) Close() error {
	if err := a.Remote.Close(); err != nil {
		a.logger.Warn(context.Background(), "failed to close remote client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close local database: %w", err)
	}
	return nil
}
