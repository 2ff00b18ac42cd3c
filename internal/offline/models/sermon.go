package models

import "time"

// SermonStatus classifies where a sermon is in its preparation lifecycle.
type SermonStatus string

const (
	SermonStatusDraft     SermonStatus = "draft"
	SermonStatusPreparing SermonStatus = "preparing"
	SermonStatusReady     SermonStatus = "ready"
	SermonStatusDelivered SermonStatus = "delivered"
	SermonStatusArchived  SermonStatus = "archived"
)

// Valid reports whether s is one of the known sermon statuses.
func (s SermonStatus) Valid() bool {
	switch s {
	case SermonStatusDraft, SermonStatusPreparing, SermonStatusReady,
		SermonStatusDelivered, SermonStatusArchived:
		return true
	}
	return false
}

// Visibility controls who may see a sermon once synced.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityCongregation Visibility = "congregation"
	VisibilityPublic       Visibility = "public"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityCongregation, VisibilityPublic:
		return true
	}
	return false
}

// Sermon is a locally stored sermon. SeriesID, when non-empty, is a weak
// reference to a Series owned by the same user; the schema does not enforce
// it, migration validation checks it.
type Sermon struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	Outline    string
	Scripture  string
	Tags       []string
	Status     SermonStatus
	Visibility Visibility
	Date       *time.Time
	Notes      string
	SeriesID   string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	SyncedAt *time.Time
	Dirty    bool
	Op       Op
	Version  int64
}

// CreateSermonInput carries the caller-supplied fields for a new sermon.
type CreateSermonInput struct {
	Title      string
	Content    string
	Outline    string
	Scripture  string
	Tags       []string
	Status     SermonStatus
	Visibility Visibility
	Date       *time.Time
	Notes      string
	SeriesID   string
}

// UpdateSermonInput is a partial patch with the same conventions as
// UpdateSeriesInput: nil means untouched, pointer-to-zero clears.
type UpdateSermonInput struct {
	Title      *string
	Content    *string
	Outline    *string
	Scripture  *string
	Tags       []string
	Status     *SermonStatus
	Visibility *Visibility
	Date       *time.Time
	Notes      *string
	SeriesID   *string
}
