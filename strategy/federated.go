package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/veltrix-io/authcore/directory"
)

// ProvisionHook observes just-in-time user creation. Used by the engine for
// audit and metrics; nil is fine.
type ProvisionHook func(ctx context.Context, user *directory.User)

// Federated authenticates an externally issued identity token through a
// provider oracle. On first successful verification of an unknown email it
// provisions a user record: empty password hash, no app entitlements.
type Federated struct {
	directory directory.Directory
	verifier  IdentityVerifier
	provision ProvisionHook
}

// NewFederated builds the federated strategy.
func NewFederated(dir directory.Directory, verifier IdentityVerifier, hook ProvisionHook) (*Federated, error) {
	if dir == nil {
		return nil, fmt.Errorf("federated strategy: directory required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("federated strategy: identity verifier required")
	}
	return &Federated{
		directory: dir,
		verifier:  verifier,
		provision: hook,
	}, nil
}

func (f *Federated) Authenticate(ctx context.Context, creds Credentials) (*directory.User, error) {
	external := creds["id_token"]
	if external == "" {
		return nil, ErrAuthenticationFailed
	}

	claim, err := f.verifier.VerifyExternalToken(ctx, external)
	if err != nil || claim == nil || claim.Email == "" {
		// Invalid, forged, or expired external token.
		return nil, ErrAuthenticationFailed
	}

	user, err := f.directory.GetByEmail(ctx, claim.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, directory.ErrNotFound) {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	created, err := f.directory.Create(ctx, &directory.User{
		ID:           uuid.NewString(),
		Name:         claim.Name,
		Email:        claim.Email,
		PasswordHash: "",
		Apps:         nil,
	})
	if err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			// Concurrent first login for the same email; whichever request
			// won the create, both resolve to the same record.
			return f.directory.GetByEmail(ctx, claim.Email)
		}
		return nil, fmt.Errorf("provision user: %w", err)
	}

	if f.provision != nil {
		f.provision(ctx, created)
	}
	return created, nil
}
