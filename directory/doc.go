// Package directory defines the user storage contract consumed by the
// authentication engine, plus an in-memory reference implementation.
//
// # Architecture boundaries
//
// This package owns the [User] model and the [Directory] interface only.
// Persistent engines (SQL, key-value, cloud tables) are supplied by the host
// application; the engine never assumes a particular storage backend.
//
// # What this package must NOT do
//
//   - Hash or verify passwords (PasswordHash is opaque here).
//   - Import authcore or any sibling package.
package directory
