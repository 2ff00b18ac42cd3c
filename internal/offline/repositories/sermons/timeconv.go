package sermons

import (
	"database/sql"
	"time"
)

// Timestamps are stored as Unix-millisecond INTEGER columns.

func milliFromTime(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func milliFromTimeNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}

func timeFromMilli(n int64) time.Time {
	return time.UnixMilli(n).UTC()
}

func timeFromMilliNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

// clearableTime interprets a patch pointer: the zero time clears the field.
func clearableTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC().Truncate(time.Millisecond)
	return &u
}
