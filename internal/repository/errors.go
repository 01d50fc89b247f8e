package repository

import "errors"

// Sentinel errors surfaced by the data access layer. Services and handlers
// match on these with errors.Is to map data conditions onto API outcomes.
var (
	// ErrNotFound is returned when a referenced entity or token does not
	// exist. Malformed and unknown tokens are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned when an approval request has already
	// left the pending state; the stored decision is never overwritten.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrExpired is returned when an approval token is past its expiry
	// window.
	ErrExpired = errors.New("expired")
)
