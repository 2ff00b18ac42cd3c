// Package identity resolves the effective user identity that scopes all
// local data: either an authenticated account id cached from the backend, or
// a locally generated anonymous id that persists until the user signs in and
// their offline data has been linked to the account.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/common"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/logging"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/remote"
	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/repositories/metadata"
)

// Metadata keys backing the persistent tier of the identity caches.
const (
	currentUserIDKey   = "offline.currentUserId"
	anonymousUserIDKey = "offline.anonymousUserId"
)

const anonymousSuffixLength = 9

// Migrator re-owns all rows held by the anonymous identity to an
// authenticated account. Implemented by the migration service; declared here
// so the resolver does not import it.
type Migrator interface {
	MigrateOfflineDataToAccount(ctx context.Context, authUserID string) (*models.MigrationResult, error)
}

// Resolver owns the identity lifecycle. Reads go through a two-tier cache:
// the in-memory copy first, then the metadata table.
type Resolver struct {
	meta     metadata.Repository
	remote   remote.Client
	migrator Migrator
	logger   logging.Logger

	mu           sync.Mutex
	cachedUserID string
	anonymousID  string
}

func NewResolver(meta metadata.Repository, rc remote.Client, logger logging.Logger) *Resolver {
	return &Resolver{meta: meta, remote: rc, logger: logger}
}

// SetMigrator wires in the migration service. It is set after construction
// because the migration service itself reads the anonymous id from the
// resolver.
func (r *Resolver) SetMigrator(m Migrator) {
	r.migrator = m
}

// CachedUserID returns the authenticated user id if one is cached locally,
// or an empty string.
func (r *Resolver) CachedUserID(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.cachedUserID != "" {
		id := r.cachedUserID
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	id, err := r.meta.Get(ctx, currentUserIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to read cached user id: %w", err)
	}
	if id != "" {
		r.mu.Lock()
		r.cachedUserID = id
		r.mu.Unlock()
	}
	return id, nil
}

// AnonymousUserID returns the stored anonymous id, or an empty string if none
// has been generated yet.
func (r *Resolver) AnonymousUserID(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.anonymousID != "" {
		id := r.anonymousID
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	id, err := r.meta.Get(ctx, anonymousUserIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to read anonymous user id: %w", err)
	}
	if id != "" {
		r.mu.Lock()
		r.anonymousID = id
		r.mu.Unlock()
	}
	return id, nil
}

// GenerateAnonymousUserID returns the existing anonymous id if one exists,
// otherwise synthesizes, persists, and caches a new one. A persistence
// failure is logged and the fresh id is still returned, so the caller always
// gets a usable identity.
func (r *Resolver) GenerateAnonymousUserID(ctx context.Context) (string, error) {
	existing, err := r.AnonymousUserID(ctx)
	if err != nil {
		r.logger.Warn(ctx, "anonymous id lookup failed, generating a new one", "error", err)
	}
	if existing != "" {
		return existing, nil
	}

	suffix, err := common.MakeRandBase36String(anonymousSuffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate anonymous user id: %w", err)
	}
	id := fmt.Sprintf("anon_%d_%s", time.Now().UnixMilli(), suffix)

	r.mu.Lock()
	r.anonymousID = id
	r.mu.Unlock()

	if err := r.meta.Set(ctx, anonymousUserIDKey, id); err != nil {
		r.logger.Warn(ctx, "failed to persist anonymous user id, continuing with in-memory id", "error", err)
	}
	return id, nil
}

// EffectiveUserID resolves the identity that scopes local reads and writes:
// the cached authenticated id, then a remote whoami, then the anonymous id.
// A failed whoami (offline, not signed in) is not an error; the anonymous
// fallback is.
func (r *Resolver) EffectiveUserID(ctx context.Context) (string, error) {
	cached, err := r.CachedUserID(ctx)
	if err != nil {
		r.logger.Warn(ctx, "cached user id lookup failed", "error", err)
	}
	if cached != "" {
		return cached, nil
	}

	if r.remote != nil {
		user, err := r.remote.Me(ctx)
		if err == nil && user != nil && user.ID != "" {
			if cacheErr := r.CacheUserID(ctx, user.ID); cacheErr != nil {
				r.logger.Warn(ctx, "failed to cache authenticated user id", "error", cacheErr)
			}
			return user.ID, nil
		}
		if err != nil {
			r.logger.Debug(ctx, "whoami failed, falling back to anonymous identity", "error", err)
		}
	}

	return r.GenerateAnonymousUserID(ctx)
}

// IsAuthenticatedOffline reports whether some usable local identity exists
// without touching the network.
func (r *Resolver) IsAuthenticatedOffline(ctx context.Context) bool {
	if id, err := r.CachedUserID(ctx); err == nil && id != "" {
		return true
	}
	id, err := r.AnonymousUserID(ctx)
	return err == nil && id != ""
}

// IsAuthenticatedOnline reports whether the backend currently recognizes the
// client's credentials.
func (r *Resolver) IsAuthenticatedOnline(ctx context.Context) bool {
	if r.remote == nil {
		return false
	}
	user, err := r.remote.Me(ctx)
	return err == nil && user != nil && user.ID != ""
}

// CacheUserID sets the cached authenticated id; an empty id clears it.
func (r *Resolver) CacheUserID(ctx context.Context, id string) error {
	r.mu.Lock()
	r.cachedUserID = id
	r.mu.Unlock()

	if id == "" {
		if err := r.meta.Delete(ctx, currentUserIDKey); err != nil {
			return fmt.Errorf("failed to clear cached user id: %w", err)
		}
		return nil
	}
	if err := r.meta.Set(ctx, currentUserIDKey, id); err != nil {
		return fmt.Errorf("failed to cache user id: %w", err)
	}
	return nil
}

// ClearAnonymousUserID removes the anonymous id from memory and persistence.
// Called once migration to an authenticated account has been confirmed.
func (r *Resolver) ClearAnonymousUserID(ctx context.Context) error {
	r.mu.Lock()
	r.anonymousID = ""
	r.mu.Unlock()

	if err := r.meta.Delete(ctx, anonymousUserIDKey); err != nil {
		return fmt.Errorf("failed to clear anonymous user id: %w", err)
	}
	return nil
}

// HasOfflineDataToLink reports whether an anonymous identity exists. It is a
// necessary precondition for migration, not a data check; the migration
// service decides whether the identity actually owns rows.
func (r *Resolver) HasOfflineDataToLink(ctx context.Context) (bool, error) {
	id, err := r.AnonymousUserID(ctx)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// LinkOfflineDataToAccount moves all anonymous-owned data to an
// authenticated account and retires the anonymous identity.
//
// A local migration failure aborts before the remote link endpoint is called
// and before any identity state changes, so the operation can be retried. A
// remote link failure after a successful local migration is logged only: the
// data is already re-owned locally and the ordinary sync path will deliver
// it.
func (r *Resolver) LinkOfflineDataToAccount(ctx context.Context, authUserID string) error {
	if r.migrator == nil {
		return fmt.Errorf("failed to link offline data: no migrator configured")
	}

	anonID, err := r.AnonymousUserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to link offline data: %w", err)
	}
	if anonID == "" {
		return nil
	}

	result, err := r.migrator.MigrateOfflineDataToAccount(ctx, authUserID)
	if err != nil {
		return fmt.Errorf("failed to migrate offline data: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("failed to migrate offline data: %s", strings.Join(result.Errors, "; "))
	}

	if r.remote != nil {
		req := remote.LinkRequest{
			AnonymousUserID:     anonID,
			AuthenticatedUserID: authUserID,
			MigrationSummary: remote.MigrationSummary{
				MigratedRecords: result.MigratedRecords,
				Conflicts:       result.Conflicts,
				Errors:          result.Errors,
			},
		}
		if err := r.remote.LinkOfflineData(ctx, req); err != nil {
			r.logger.Warn(ctx, "failed to notify backend about linked offline data", "error", err)
		}
	}

	if err := r.ClearAnonymousUserID(ctx); err != nil {
		return err
	}
	if err := r.CacheUserID(ctx, authUserID); err != nil {
		return err
	}

	r.logger.Info(ctx, "offline data linked to account",
		"anonymousUserId", anonID, "userId", authUserID,
		"migratedRecords", result.MigratedRecords, "conflicts", result.Conflicts)
	return nil
}
