package models

import "time"

// Profile is the locally stored preacher profile, keyed by user identity.
// It carries the same sync metadata as the other entities so profile edits
// ride the same dirty-row contract.
type Profile struct {
	UserID      string
	DisplayName string
	Church      string
	Bio         string

	CreatedAt time.Time
	UpdatedAt time.Time

	SyncedAt *time.Time
	Dirty    bool
	Op       Op
	Version  int64
}

// UpsertProfileInput is a partial patch for a profile; nil fields are left
// untouched, pointer-to-empty clears.
type UpsertProfileInput struct {
	DisplayName *string
	Church      *string
	Bio         *string
}
