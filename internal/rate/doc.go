// Package rate provides the Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  — login per-identifier
//   - ali: — login per-IP
//
// # What this package must NOT do
//
//   - Decide which failures count against the budget (the login flow does).
//   - Be imported outside the authcore module.
package rate
