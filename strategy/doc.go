// Package strategy defines the pluggable authentication contract and its two
// built-in implementations: email/password and federated identity.
//
// A [Strategy] converts a transient credential bag into a verified
// [directory.User] or fails with [ErrAuthenticationFailed] or
// [ErrIdentityNotFound]. The two failure kinds stay distinct here for
// diagnostics; the engine collapses them into one unauthorized result before
// anything crosses the subsystem boundary, so callers cannot enumerate
// accounts.
//
// # What this package must NOT do
//
//   - Issue or inspect session tokens.
//   - Import authcore or the token package.
package strategy
