package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/veltrix-io/authcore/directory"
)

// decoySource feeds the decoy hash computed at construction time. The value
// is irrelevant; only the cost of verifying against it matters.
const decoySource = "authcore-decoy-3f2c0b19a64d"

// Password authenticates an email/password pair against the directory.
// It never creates users.
type Password struct {
	directory directory.Directory
	hasher    PasswordHasher
	decoyHash string
}

// NewPassword builds the password strategy. A decoy hash is precomputed so
// that lookups missing the directory still pay one full verification,
// keeping "no such email" and "wrong password" indistinguishable by timing.
func NewPassword(dir directory.Directory, hasher PasswordHasher) (*Password, error) {
	if dir == nil {
		return nil, fmt.Errorf("password strategy: directory required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password strategy: hasher required")
	}
	decoy, err := hasher.Hash(decoySource)
	if err != nil {
		return nil, fmt.Errorf("password strategy: decoy hash: %w", err)
	}

	return &Password{
		directory: dir,
		hasher:    hasher,
		decoyHash: decoy,
	}, nil
}

func (p *Password) Authenticate(ctx context.Context, creds Credentials) (*directory.User, error) {
	email := creds["email"]
	password := creds["password"]
	if email == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := p.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			// Burn a verification anyway; see NewPassword.
			_, _ = p.hasher.Verify(password, p.decoyHash)
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	ok, err := p.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrAuthenticationFailed
	}
	return user, nil
}
