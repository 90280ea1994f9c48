package strategy

import (
	"context"
	"errors"

	"github.com/veltrix-io/authcore/directory"
)

var (
	// ErrAuthenticationFailed means the credentials were present but wrong:
	// password mismatch, or an external token the provider rejected.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrIdentityNotFound means no identity matched the credentials. Kept
	// distinct from ErrAuthenticationFailed for diagnostics; the orchestrator
	// collapses both before they reach a caller.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Credentials is the transient, strategy-specific field bag supplied at
// login. Field names are strategy conventions ("email", "password",
// "id_token"). Never persisted.
type Credentials map[string]string

// Strategy turns raw credentials into a verified user identity.
type Strategy interface {
	Authenticate(ctx context.Context, creds Credentials) (*directory.User, error)
}

// PasswordHasher is the one-way password function collaborator. Hash must be
// deliberately slow and salted; Verify reports a mismatch as (false, nil) and
// reserves the error for malformed hashes or internal failures.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// IdentityClaim is the verified identity a federated provider vouches for.
type IdentityClaim struct {
	Email string
	Name  string
}

// IdentityVerifier is the trusted federated-provider oracle: it either
// returns a verified claim for the supplied external token or fails.
// Verification internals (provider keys, audiences) live behind it.
type IdentityVerifier interface {
	VerifyExternalToken(ctx context.Context, token string) (*IdentityClaim, error)
}
