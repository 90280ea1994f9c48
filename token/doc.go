// Package token issues and verifies signed session tokens and drives their
// lifecycle: valid until expired (time-based) or revoked (explicit), with no
// way back from either state.
//
// [Manager] is the pure codec: HS256-signed claims carrying subject, kind
// (access or refresh), and an identity snapshot. [Service] layers the
// revocation overlay on top and adds the two mutating operations, Revoke and
// Rotate. Rotation enforces single-use refresh tokens — the old token is
// atomically revoked before a replacement is signed, so a stolen-but-replayed
// refresh token dies at the revocation check.
//
// # Failure contract
//
// Service verification never explains itself: every negative outcome is
// [ErrInvalid]. Construction-time problems (missing secret, bad TTLs) are
// returned eagerly from [NewManager] instead.
package token
