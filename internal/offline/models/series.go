package models

import "time"

// SeriesStatus classifies where a sermon series is in its lifecycle.
type SeriesStatus string

const (
	SeriesStatusPlanning  SeriesStatus = "planning"
	SeriesStatusActive    SeriesStatus = "active"
	SeriesStatusCompleted SeriesStatus = "completed"
	SeriesStatusArchived  SeriesStatus = "archived"
)

// Valid reports whether s is one of the known series statuses.
func (s SeriesStatus) Valid() bool {
	switch s {
	case SeriesStatusPlanning, SeriesStatusActive, SeriesStatusCompleted, SeriesStatusArchived:
		return true
	}
	return false
}

// Series is a locally stored sermon series. Rows are owned by exactly one
// user identity at a time and soft-deleted so deletions can sync.
type Series struct {
	ID          string
	UserID      string
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	ImageURL    string
	Tags        []string
	Status      SeriesStatus

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	SyncedAt *time.Time
	Dirty    bool
	Op       Op
	Version  int64
}

// CreateSeriesInput carries the caller-supplied fields for a new series.
type CreateSeriesInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	ImageURL    string
	Tags        []string
	Status      SeriesStatus
}

// UpdateSeriesInput is a partial patch: nil pointer fields are left
// untouched. A pointer to the zero value clears the field; for Tags a nil
// slice means untouched and a non-nil empty slice clears the list. A date
// pointer holding the zero time clears the stored date.
type UpdateSeriesInput struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	ImageURL    *string
	Tags        []string
	Status      *SeriesStatus
}
