// Package common defines shared constants and sentinel errors used across
// the portal, the account store and the probe. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStorage wraps any backend fault that is not a lock conflict.
	ErrStorage = errors.New("storage error")
	// ErrStorageLocked is returned once the retry budget for a busy/locked
	// store is exhausted.
	ErrStorageLocked = errors.New("storage locked")

	// Service-level errors.
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")
	ErrQuotaExhausted = errors.New("no remaining queries")
	ErrBlacklisted    = errors.New("search term contains a blacklisted keyword")
)
