package authcore

import (
	"io"

	internalaudit "github.com/veltrix-io/authcore/internal/audit"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/strategy"
	"github.com/veltrix-io/authcore/token"
)

// User is the canonical directory record.
type User = directory.User

// Directory is the user persistence interface callers must implement (or
// satisfy with [directory.Memory]).
type Directory = directory.Directory

// Credentials is the transient, strategy-specific field bag supplied at
// login.
type Credentials = strategy.Credentials

// Strategy turns raw credentials into a verified user identity.
type Strategy = strategy.Strategy

// PasswordHasher is the one-way password function collaborator.
type PasswordHasher = strategy.PasswordHasher

// IdentityVerifier is the trusted federated-provider oracle.
type IdentityVerifier = strategy.IdentityVerifier

// IdentityClaim is the verified identity a federated provider vouches for.
type IdentityClaim = strategy.IdentityClaim

// TokenClaims is the decoded payload of a verified token.
type TokenClaims = token.Claims

// Strategy names registered by [Builder.Build]. Callers may override either
// with [Builder.WithStrategy].
const (
	StrategyEmailPassword = "email_password"
	StrategyGoogle        = "google"
)

// LoginResult is returned by [Engine.Login]: the authenticated user plus a
// fresh token pair.
type LoginResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// TokenPair is returned by [Engine.Refresh].
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
