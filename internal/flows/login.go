package flows

import (
	"context"
	"errors"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/strategy"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	User         *directory.User
	AccessToken  string
	RefreshToken string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	StrategyNotFound   error
	InvalidCredentials error
	LoginRateLimited   error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string, string) error

	ResolveStrategy func(string) (strategy.Strategy, bool)

	// MaybeUpgradeHash re-hashes the stored password when parameters changed.
	// Called only after a successful password authentication; nil disables.
	MaybeUpgradeHash func(context.Context, *directory.User, string)

	IssueAccess  func(*directory.User) (string, error)
	IssueRefresh func(*directory.User) (string, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, string, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// rateIdentifier picks the throttle key for a credential bag: the claimed
// email when present, otherwise the opaque external token.
func rateIdentifier(creds strategy.Credentials) string {
	if email := creds["email"]; email != "" {
		return email
	}
	return creds["id_token"]
}

// RunLogin executes the login flow: throttle check, strategy dispatch,
// credential verification, then token pair issuance. All authentication
// failures collapse to Errors.InvalidCredentials; the true reason survives
// only in audit metadata.
func RunLogin(ctx context.Context, strategyName string, creds strategy.Credentials, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.ResolveStrategy == nil ||
		deps.IssueAccess == nil ||
		deps.IssueRefresh == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	identifier := rateIdentifier(creds)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, identifier, ip); err != nil {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", strategyName, deps.Errors.LoginRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": identifier,
				}
			})
			return nil, deps.Errors.LoginRateLimited
		}
	}

	strat, ok := deps.ResolveStrategy(strategyName)
	if !ok {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", strategyName, deps.Errors.StrategyNotFound, func() map[string]string {
			return map[string]string{
				"reason": "unknown_strategy",
			}
		})
		return nil, deps.Errors.StrategyNotFound
	}

	user, err := strat.Authenticate(ctx, creds)
	if err != nil {
		reason := "authentication_failed"
		switch {
		case errors.Is(err, strategy.ErrIdentityNotFound):
			reason = "identity_not_found"
		case errors.Is(err, strategy.ErrAuthenticationFailed):
		default:
			// Infrastructure failure (directory outage, provider timeout).
			// Propagated as-is so callers can tell outages from bad logins.
			deps.MetricInc(deps.Metrics.LoginFailure)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", strategyName, err, func() map[string]string {
				return map[string]string{
					"identifier": identifier,
					"reason":     "strategy_error",
				}
			})
			return nil, err
		}

		if deps.IncrementLoginRate != nil {
			if rateErr := deps.IncrementLoginRate(ctx, identifier, ip); rateErr != nil {
				deps.MetricInc(deps.Metrics.LoginRateLimited)
				deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", strategyName, deps.Errors.LoginRateLimited, func() map[string]string {
					return map[string]string{
						"identifier": identifier,
					}
				})
				return nil, deps.Errors.LoginRateLimited
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", strategyName, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     reason,
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if deps.MaybeUpgradeHash != nil {
		if password := creds["password"]; password != "" {
			deps.MaybeUpgradeHash(ctx, user, password)
		}
	}

	access, err := deps.IssueAccess(user)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, strategyName, err, func() map[string]string {
			return map[string]string{
				"reason": "issue_access_failed",
			}
		})
		return nil, err
	}

	refresh, err := deps.IssueRefresh(user)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, strategyName, err, func() map[string]string {
			return map[string]string{
				"reason": "issue_refresh_failed",
			}
		})
		return nil, err
	}

	if deps.ResetLoginRate != nil {
		// Tokens are already issued and stateless, so a limiter outage here
		// cannot fail the login. The counter simply ages out.
		if err := deps.ResetLoginRate(ctx, identifier, ip); err != nil {
			deps.Warn("authcore: login throttle reset failed")
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, strategyName, nil, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
		}
	})

	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
