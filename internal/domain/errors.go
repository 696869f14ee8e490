package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Membership errors
	ErrDuplicateNode = errors.New("node already registered")
	ErrUnknownNode   = errors.New("node is not a member")
	ErrEmptyIdentity = errors.New("empty node identity")

	// Protocol errors
	ErrBadFrame     = errors.New("malformed message frame")
	ErrBadChecksum  = errors.New("message checksum mismatch")
	ErrWrongKind    = errors.New("unexpected message kind")
	ErrAwaitTimeout = errors.New("timed out waiting for message")

	// Session errors
	ErrNotConnected = errors.New("session is not connected")
	ErrClosed       = errors.New("endpoint is closed")
)
