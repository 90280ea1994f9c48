// Package revocation implements the shared revocation set for issued tokens.
//
// Members are SHA-256 digests of compact token strings, so membership checks
// run before (and cheaper than) signature verification, and raw tokens never
// touch the store. Records carry a TTL equal to the revoked token's remaining
// lifetime — once the token would have expired anyway, its record lapses.
//
// Two implementations are provided: [RedisStore] (preferred; shared across
// instances and restart-durable within the TTL window) and [MemoryStore]
// (single-instance fallback).
//
// # What this package must NOT do
//
//   - Parse or validate tokens — callers hand it opaque keys.
//   - Import authcore or the token package.
package revocation
