package conflict

import (
	"fmt"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"
)

// MergeSeries combines a local and a remote series field by field: a
// non-empty value beats an empty one, tags are unioned, and when both sides
// hold a value the newer side wins. The returned log records which side each
// contested field was taken from.
func MergeSeries(local, remote *models.Series) (*models.Series, []string) {
	localNewer := effectiveTime(local.UpdatedAt, local.CreatedAt).
		After(effectiveTime(remote.UpdatedAt, remote.CreatedAt))
	var log []string

	merged := *local
	merged.Title = mergeString("title", local.Title, remote.Title, localNewer, &log)
	merged.Description = mergeString("description", local.Description, remote.Description, localNewer, &log)
	merged.ImageURL = mergeString("imageUrl", local.ImageURL, remote.ImageURL, localNewer, &log)
	merged.StartDate = mergeDate("startDate", local.StartDate, remote.StartDate, localNewer, &log)
	merged.EndDate = mergeDate("endDate", local.EndDate, remote.EndDate, localNewer, &log)
	merged.Status = models.SeriesStatus(mergeString("status",
		string(local.Status), string(remote.Status), localNewer, &log))
	merged.Tags = unionTags(local.Tags, remote.Tags, &log)

	finishMerge(&merged.UpdatedAt, &merged.Version, local.UpdatedAt, remote.UpdatedAt,
		local.Version, remote.Version)
	merged.Dirty = true
	merged.Op = models.OpUpsert
	return &merged, log
}

// MergeSermons combines a local and a remote sermon. Sermon content follows
// its own rule: when both sides are non-empty the longer text wins, on equal
// length the newer side wins.
func MergeSermons(local, remote *models.Sermon) (*models.Sermon, []string) {
	localNewer := effectiveTime(local.UpdatedAt, local.CreatedAt).
		After(effectiveTime(remote.UpdatedAt, remote.CreatedAt))
	var log []string

	merged := *local
	merged.Title = mergeString("title", local.Title, remote.Title, localNewer, &log)
	merged.Content = mergeContent("content", local.Content, remote.Content, localNewer, &log)
	merged.Outline = mergeContent("outline", local.Outline, remote.Outline, localNewer, &log)
	merged.Scripture = mergeString("scripture", local.Scripture, remote.Scripture, localNewer, &log)
	merged.Notes = mergeString("notes", local.Notes, remote.Notes, localNewer, &log)
	merged.SeriesID = mergeString("seriesId", local.SeriesID, remote.SeriesID, localNewer, &log)
	merged.Status = models.SermonStatus(mergeString("status",
		string(local.Status), string(remote.Status), localNewer, &log))
	merged.Visibility = models.Visibility(mergeString("visibility",
		string(local.Visibility), string(remote.Visibility), localNewer, &log))
	merged.Date = mergeDate("date", local.Date, remote.Date, localNewer, &log)
	merged.Tags = unionTags(local.Tags, remote.Tags, &log)

	finishMerge(&merged.UpdatedAt, &merged.Version, local.UpdatedAt, remote.UpdatedAt,
		local.Version, remote.Version)
	merged.Dirty = true
	merged.Op = models.OpUpsert
	return &merged, log
}

// mergeString prefers the non-empty side; when both are set the newer side
// wins.
func mergeString(field, local, remote string, localNewer bool, log *[]string) string {
	switch {
	case local == remote:
		return local
	case local == "":
		*log = append(*log, fmt.Sprintf("%s: took remote value (local empty)", field))
		return remote
	case remote == "":
		*log = append(*log, fmt.Sprintf("%s: kept local value (remote empty)", field))
		return local
	case localNewer:
		*log = append(*log, fmt.Sprintf("%s: kept local value (newer)", field))
		return local
	default:
		*log = append(*log, fmt.Sprintf("%s: took remote value (newer)", field))
		return remote
	}
}

// mergeContent prefers the longer text when both sides are non-empty, so a
// fuller manuscript is never clobbered by a stub saved later.
func mergeContent(field, local, remote string, localNewer bool, log *[]string) string {
	if local == "" || remote == "" || local == remote {
		return mergeString(field, local, remote, localNewer, log)
	}
	switch {
	case len(local) > len(remote):
		*log = append(*log, fmt.Sprintf("%s: kept local value (longer)", field))
		return local
	case len(remote) > len(local):
		*log = append(*log, fmt.Sprintf("%s: took remote value (longer)", field))
		return remote
	default:
		return mergeString(field, local, remote, localNewer, log)
	}
}

func mergeDate(field string, local, remote *time.Time, localNewer bool, log *[]string) *time.Time {
	switch {
	case local == nil && remote == nil:
		return nil
	case local == nil:
		*log = append(*log, fmt.Sprintf("%s: took remote value (local empty)", field))
		return remote
	case remote == nil:
		*log = append(*log, fmt.Sprintf("%s: kept local value (remote empty)", field))
		return local
	case local.Equal(*remote):
		return local
	case localNewer:
		*log = append(*log, fmt.Sprintf("%s: kept local value (newer)", field))
		return local
	default:
		*log = append(*log, fmt.Sprintf("%s: took remote value (newer)", field))
		return remote
	}
}

// unionTags keeps local order and appends remote tags not already present.
func unionTags(local, remote []string, log *[]string) []string {
	seen := make(map[string]bool, len(local))
	out := make([]string, 0, len(local)+len(remote))
	for _, t := range local {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	added := 0
	for _, t := range remote {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
			added++
		}
	}
	if added > 0 {
		*log = append(*log, fmt.Sprintf("tags: merged %d remote tag(s) into local list", added))
	}
	return out
}

// finishMerge stamps the merged record with the newer updatedAt and the
// higher version of the two sides.
func finishMerge(updatedAt *time.Time, version *int64, localUpdated, remoteUpdated time.Time,
	localVersion, remoteVersion int64) {
	if remoteUpdated.After(localUpdated) {
		*updatedAt = remoteUpdated
	} else {
		*updatedAt = localUpdated
	}
	if remoteVersion > localVersion {
		*version = remoteVersion
	} else {
		*version = localVersion
	}
}
