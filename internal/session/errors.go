// Package session implements the guest-side feedback and chat session:
// room resolution, the live message stream, notification cues and the
// coordinator that mediates UI intents.
package session

import "errors"

var (
	// ErrUnauthenticated means no identity was available for an intent
	// that requires one.
	ErrUnauthenticated = errors.New("no authenticated user")

	// ErrNotReady means an action was attempted before room resolution
	// completed. The intent is rejected, never queued.
	ErrNotReady = errors.New("room is not ready")

	// ErrInvalidInput means a rating or message text failed local
	// validation. Nothing reaches storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable means a read or query failed for a reason
	// other than "not found".
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSendFailed means persisting a message or feedback record failed.
	// No optimistic append happens; the caller may retry.
	ErrSendFailed = errors.New("send failed")
)
