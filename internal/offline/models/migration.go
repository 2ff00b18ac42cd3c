package models

// MigrationOutcome reports the result of re-owning one entity kind from one
// user identity to another.
//
// Migrated counts every row successfully re-owned, including conflict rows
// that were given a replacement id. IDRemap maps the old id to the new id for
// exactly those conflict rows, so foreign references can be fixed up in a
// second pass. A single row's failure lands in Errors and does not abort the
// remaining rows.
type MigrationOutcome struct {
	Migrated  int
	Conflicts int
	Errors    []string
	IDRemap   map[string]string
}

// Success reports whether every row migrated cleanly.
func (o *MigrationOutcome) Success() bool {
	return len(o.Errors) == 0
}

// MigrationResult aggregates the outcomes of a full migration run across
// every entity kind.
type MigrationResult struct {
	MigratedRecords int
	Conflicts       int
	Errors          []string
}

// Success reports whether the whole run completed without row errors.
func (r *MigrationResult) Success() bool {
	return len(r.Errors) == 0
}
