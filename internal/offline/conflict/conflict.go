// Package conflict decides what happens when the same record was changed
// both locally and remotely between syncs. All functions are pure: they
// inspect the two records and return a decision, never touching storage.
package conflict

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

// Strategy selects how a conflict between a local and a remote record is
// resolved.
type Strategy string

const (
	// LocalWins always keeps the local record.
	LocalWins Strategy = "local_wins"
	// RemoteWins always keeps the remote record.
	RemoteWins Strategy = "remote_wins"
	// NewestWins keeps whichever side carries the newer timestamp; an
	// exact tie is resolved in favor of remote.
	NewestWins Strategy = "newest_wins"
	// Manual defers the decision to the caller.
	Manual Strategy = "manual"
)

// Outcome is the decision a resolution produced.
type Outcome string

const (
	KeepLocal    Outcome = "keep_local"
	KeepRemote   Outcome = "keep_remote"
	Merged       Outcome = "merged"
	ManualReview Outcome = "manual_review"
)

// SeriesResolution is the decision for a series conflict. Record is the
// record to keep; it is nil for ManualReview.
type SeriesResolution struct {
	Outcome Outcome
	Record  *models.Series
	Reason  string
}

// SermonResolution is the decision for a sermon conflict.
type SermonResolution struct {
	Outcome Outcome
	Record  *models.Sermon
	Reason  string
}

// ResolveSeries decides between a local and a remote series under the given
// strategy.
func ResolveSeries(local, remote *models.Series, strategy Strategy) SeriesResolution {
	outcome, reason := resolve(strategy,
		effectiveTime(local.UpdatedAt, local.CreatedAt),
		effectiveTime(remote.UpdatedAt, remote.CreatedAt))
	res := SeriesResolution{Outcome: outcome, Reason: reason}
	switch outcome {
	case KeepLocal:
		res.Record = local
	case KeepRemote:
		res.Record = remote
	}
	return res
}

// ResolveSermon decides between a local and a remote sermon under the given
// strategy.
func ResolveSermon(local, remote *models.Sermon, strategy Strategy) SermonResolution {
	outcome, reason := resolve(strategy,
		effectiveTime(local.UpdatedAt, local.CreatedAt),
		effectiveTime(remote.UpdatedAt, remote.CreatedAt))
	res := SermonResolution{Outcome: outcome, Reason: reason}
	switch outcome {
	case KeepLocal:
		res.Record = local
	case KeepRemote:
		res.Record = remote
	}
	return res
}

func resolve(strategy Strategy, localTime, remoteTime time.Time) (Outcome, string) {
	switch strategy {
	case LocalWins:
		return KeepLocal, "strategy local_wins"
	case RemoteWins:
		return KeepRemote, "strategy remote_wins"
	case Manual:
		return ManualReview, "strategy manual, resolution deferred to caller"
	case NewestWins, "":
		if localTime.After(remoteTime) {
			return KeepLocal, fmt.Sprintf("local change at %s is newer than remote at %s",
				localTime.UTC().Format(time.RFC3339), remoteTime.UTC().Format(time.RFC3339))
		}
		if remoteTime.After(localTime) {
			return KeepRemote, fmt.Sprintf("remote change at %s is newer than local at %s",
				remoteTime.UTC().Format(time.RFC3339), localTime.UTC().Format(time.RFC3339))
		}
		return KeepRemote, "timestamps are equal, remote wins on ambiguity"
	default:
		return ManualReview, fmt.Sprintf("unknown strategy %q, resolution deferred to caller", strategy)
	}
}

// effectiveTime picks the timestamp a record is judged by: updatedAt when
// set, else createdAt, else the zero time.
func effectiveTime(updated, created time.Time) time.Time {
	if !updated.IsZero() {
		return updated
	}
	return created
}

// ChangedFields reports which of the named struct fields differ between the
// two records, using JSON-level equality so nested values compare by
// content. It is a diagnostic helper; resolution does not depend on it.
func ChangedFields(local, remote any, fields []string) ([]string, error) {
	localMap, err := toMap(local)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect local record: %w", err)
	}
	remoteMap, err := toMap(remote)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect remote record: %w", err)
	}

	var changed []string
	for _, f := range fields {
		if !reflect.DeepEqual(localMap[f], remoteMap[f]) {
			changed = append(changed, f)
		}
	}
	return changed, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
