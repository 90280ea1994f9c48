package flows

import (
	"context"
	"errors"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/token"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureVerify
	RefreshFailureUserMissing
	RefreshFailureDirectory
	RefreshFailureIssueAccess
	RefreshFailureRotate
	RefreshFailureRotateStore
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       string
	User         *directory.User
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	VerifyRefresh func(context.Context, string) (*token.Claims, error)
	GetUserByID   func(context.Context, string) (*directory.User, error)
	IssueAccess   func(*directory.User) (string, error)
	Rotate        func(context.Context, string) (string, error)
}

// RunRefresh executes verification, directory re-read, and single-use
// rotation without root package dependencies. The access token is minted
// from the fresh directory record so revoked entitlements never outlive
// one refresh cycle.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureVerify,
			Err:     err,
		}
	}

	user, err := deps.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return RefreshResult{
				Failure: RefreshFailureUserMissing,
				Err:     err,
				UserID:  claims.Subject,
			}
		}
		return RefreshResult{
			Failure: RefreshFailureDirectory,
			Err:     err,
			UserID:  claims.Subject,
		}
	}

	access, err := deps.IssueAccess(user)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureIssueAccess,
			Err:     err,
			UserID:  user.ID,
			User:    user,
		}
	}

	rotated, err := deps.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalid) {
			// The token died between Verify and Rotate: a concurrent refresh
			// won the revocation race, or the token was revoked out of band.
			return RefreshResult{
				Failure: RefreshFailureRotate,
				Err:     err,
				UserID:  user.ID,
				User:    user,
			}
		}
		return RefreshResult{
			Failure: RefreshFailureRotateStore,
			Err:     err,
			UserID:  user.ID,
			User:    user,
		}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		UserID:       user.ID,
		User:         user,
		AccessToken:  access,
		RefreshToken: rotated,
	}
}
