// Package metadata stores small key/value pairs in the local database, such
// as the cached authenticated user id and the anonymous user id.
package metadata

import "context"

// Repository is a persistent string key/value cache.
//
// Get returns an empty string (and no error) for a missing key so callers
// can treat "unset" and "empty" uniformly.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
