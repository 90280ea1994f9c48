package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Revoke func(context.Context, string) error
}

// RunLogout revokes the presented refresh token. Unknown or expired tokens
// are a successful no-op so logout stays idempotent.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) error {
	return deps.Revoke(ctx, refreshToken)
}
