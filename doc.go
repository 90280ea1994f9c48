// Package authcore provides an embeddable credential-issuance and
// session-lifecycle engine: pluggable authentication strategies, signed
// stateless token pairs, and Redis-backed refresh revocation with single-use
// rotation.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginResult, TokenPair, MetricsSnapshot). All internal
// coordination lives under internal/ and is never exported; the leaf packages
// (directory, strategy, token, revocation, password) stay importable for
// callers who want to compose the pieces directly.
//
// # What this package must NOT do
//
//   - Expose Redis clients or revocation key layouts in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Performance contract
//
// VerifyAccessToken is the hot path. It performs one revocation existence
// check and one signature verification, and allocates only the returned
// claims.
package authcore
