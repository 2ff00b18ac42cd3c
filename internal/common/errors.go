// Package common contains shared constants and sentinel errors used across
// the offline data layer. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote API errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("server unavailable")

	// Identity errors.
	ErrNoAnonymousIdentity = errors.New("no anonymous identity")

	// Migration errors.
	ErrRollbackUnsupported = errors.New("migration rollback not supported")
)
