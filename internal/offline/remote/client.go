// Package remote defines the contract this data layer expects from the
// remote backend, plus an HTTP/JSON implementation of it. The backend is an
// external collaborator; nothing in here owns business rules.
package remote

import (
	"context"
	"time"
)

// User is the identity returned by the backend's "who am I" endpoint.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// SeriesRecord is the wire form of a series.
type SeriesRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	Version     int64      `json:"version"`
}

// SermonRecord is the wire form of a sermon.
type SermonRecord struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Outline    string     `json:"outline,omitempty"`
	Scripture  string     `json:"scripture,omitempty"`
	Tags       []string   `json:"tags"`
	Status     string     `json:"status"`
	Visibility string     `json:"visibility"`
	Date       *time.Time `json:"date,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	SeriesID   string     `json:"seriesId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	Version    int64      `json:"version"`
}

// MigrationSummary accompanies the link request so the backend can audit
// what the device believes it migrated.
type MigrationSummary struct {
	MigratedRecords int      `json:"migratedRecords"`
	Conflicts       int      `json:"conflicts"`
	Errors          []string `json:"errors,omitempty"`
}

// LinkRequest tells the backend that locally created anonymous data has been
// re-owned to an authenticated account.
type LinkRequest struct {
	AnonymousUserID     string           `json:"anonymousUserId"`
	AuthenticatedUserID string           `json:"authenticatedUserId"`
	MigrationSummary    MigrationSummary `json:"migrationSummary"`
}

// Client is the remote backend as seen by the offline data layer. All calls
// are scoped to the authenticated user carried by the client's credentials.
type Client interface {
	// Me returns the authenticated user, or common.ErrUnauthorized when the
	// credentials are missing/invalid.
	Me(ctx context.Context) (*User, error)

	ListSeries(ctx context.Context) ([]*SeriesRecord, error)
	PushSeries(ctx context.Context, rec *SeriesRecord) error
	DeleteSeries(ctx context.Context, id string) error

	ListSermons(ctx context.Context) ([]*SermonRecord, error)
	PushSermon(ctx context.Context, rec *SermonRecord) error
	DeleteSermon(ctx context.Context, id string) error

	// LinkOfflineData records that anonymous-scoped data now belongs to an
	// authenticated account.
	LinkOfflineData(ctx context.Context, req LinkRequest) error

	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	Close() error
}
