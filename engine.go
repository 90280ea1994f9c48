package authcore

import (
	"context"
	"log"
	"time"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/internal/audit"
	"github.com/veltrix-io/authcore/internal/flows"
	"github.com/veltrix-io/authcore/internal/rate"
	"github.com/veltrix-io/authcore/revocation"
	"github.com/veltrix-io/authcore/strategy"
	"github.com/veltrix-io/authcore/token"
)

// Engine is the authentication orchestrator. Build one with [Builder];
// methods are safe for concurrent use after that.
type Engine struct {
	config     Config
	directory  Directory
	strategies map[string]Strategy
	hasher     PasswordHasher
	tokens     *token.Service
	revoked    revocation.Store
	limiter    *rate.Limiter
	audit      *audit.Dispatcher
	metrics    *Metrics
	flows      flows.Service
}

// Close flushes and stops the audit dispatcher. Idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events the dispatcher discarded
// because its buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login authenticates credentials through the named strategy and issues a
// fresh access+refresh pair. Credential failures of any kind return
// [ErrInvalidCredentials]; an unregistered strategy name returns
// [ErrStrategyNotFound].
func (e *Engine) Login(ctx context.Context, strategyName string, creds Credentials) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := e.flows.Login(ctx, strategyName, creds)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

// Refresh trades a live refresh token for a new pair. The old token is
// retired first; under concurrent presentation of the same token exactly
// one caller receives a new pair and the rest get [ErrUnauthorized].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	result := e.flows.Refresh(ctx, refreshToken)
	switch result.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, result.UserID, "", nil, nil)
		return &TokenPair{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		}, nil

	case flows.RefreshFailureVerify:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrUnauthorized, func() map[string]string {
			return map[string]string{
				"reason": "verify_failed",
			}
		})
		return nil, ErrUnauthorized

	case flows.RefreshFailureUserMissing:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, result.UserID, "", ErrUserNotFound, func() map[string]string {
			return map[string]string{
				"reason": "user_missing",
			}
		})
		return nil, ErrUserNotFound

	case flows.RefreshFailureRotate:
		// The token was consumed between verify and rotate: either a
		// concurrent refresh won, or an out-of-band revocation landed.
		e.metricInc(MetricRefreshReuseDetected)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshReuseDetected, false, result.UserID, "", ErrUnauthorized, nil)
		return nil, ErrUnauthorized

	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, result.UserID, "", result.Err, func() map[string]string {
			return map[string]string{
				"reason": "backend_failure",
			}
		})
		return nil, result.Err
	}
}

// Logout retires the presented refresh token. Expired, malformed, or
// already-revoked tokens are a successful no-op; only a revocation store
// outage returns an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.flows.Logout(ctx, refreshToken)
	if err == nil {
		e.metricInc(MetricLogout)
	}
	e.emitAudit(ctx, auditEventLogout, err == nil, "", "", err, nil)
	return err
}

// VerifyAccessToken is the hot-path guard for protected resources. It
// checks revocation before the signature and collapses every failure to
// [ErrTokenInvalid].
func (e *Engine) VerifyAccessToken(ctx context.Context, accessToken string) (*TokenClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	claims, err := e.tokens.Verify(ctx, accessToken, token.KindAccess)
	if e.metrics != nil {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricTokenVerifyFailure)
		return nil, err
	}
	return claims, nil
}

// RevokeRefreshToken retires a refresh token out of band, e.g. from an
// admin console. Equivalent to Logout without the audit framing.
func (e *Engine) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return e.tokens.Revoke(ctx, refreshToken)
}

// LoginAttempts reports the current throttle counter for an identifier.
// Zero when throttling is disabled.
func (e *Engine) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	if e == nil || e.limiter == nil {
		return 0, nil
	}
	return e.limiter.GetLoginAttempts(ctx, identifier)
}

// maybeUpgradeHash re-hashes the user's password with current parameters
// after a successful password login. Best effort: failures are logged and
// never block the login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user *directory.User, password string) {
	if !e.config.Password.UpgradeOnLogin || user == nil || user.PasswordHash == "" {
		return
	}
	upgrader, ok := e.hasher.(interface {
		NeedsRehash(encodedHash string) (bool, error)
	})
	if !ok {
		return
	}

	needs, err := upgrader.NeedsRehash(user.PasswordHash)
	if err != nil || !needs {
		return
	}
	newHash, err := e.hasher.Hash(password)
	if err != nil {
		log.Print("authcore: password hash upgrade generation failed")
		return
	}

	updated := user.Clone()
	updated.PasswordHash = newHash
	if _, err := e.directory.Update(ctx, updated); err != nil {
		log.Print("authcore: password hash upgrade update failed")
		return
	}
	user.PasswordHash = newHash
}

// userProvisioned records just-in-time account creation by a federated
// strategy.
func (e *Engine) userProvisioned(ctx context.Context, user *directory.User) {
	if user == nil {
		return
	}
	e.metricInc(MetricUserProvisioned)
	e.emitAudit(ctx, auditEventUserProvisioned, true, user.ID, StrategyGoogle, nil, func() map[string]string {
		return map[string]string{
			"email": user.Email,
		}
	})
}

func (e *Engine) resolveStrategy(name string) (strategy.Strategy, bool) {
	s, ok := e.strategies[name]
	return s, ok
}

func (e *Engine) flowDeps() flows.Deps {
	deps := flows.Deps{
		Login: flows.LoginDeps{
			ClientIPFromContext: clientIPFromContext,
			ResolveStrategy:     e.resolveStrategy,
			MaybeUpgradeHash:    e.maybeUpgradeHash,
			IssueAccess:         e.issueAccess,
			IssueRefresh:        e.issueRefresh,
			MetricInc: func(id int) {
				e.metricInc(MetricID(id))
			},
			EmitAudit: e.emitAudit,
			Warn: func(msg string, _ ...any) {
				log.Print(msg)
			},
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				LoginRateLimited: int(MetricLoginRateLimited),
			},
			Events: flows.LoginEvents{
				LoginSuccess:     auditEventLoginSuccess,
				LoginFailure:     auditEventLoginFailure,
				LoginRateLimited: auditEventLoginRateLimited,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				StrategyNotFound:   ErrStrategyNotFound,
				InvalidCredentials: ErrInvalidCredentials,
				LoginRateLimited:   ErrLoginRateLimited,
			},
		},
		Refresh: flows.RefreshDeps{
			VerifyRefresh: func(ctx context.Context, tok string) (*token.Claims, error) {
				return e.tokens.Verify(ctx, tok, token.KindRefresh)
			},
			GetUserByID: e.directory.GetByID,
			IssueAccess: e.issueAccess,
			Rotate:      e.tokens.Rotate,
		},
		Logout: flows.LogoutDeps{
			Revoke: e.tokens.Revoke,
		},
	}

	if e.limiter != nil {
		deps.Login.CheckLoginRate = e.checkLoginRate
		deps.Login.IncrementLoginRate = e.limiter.IncrementLogin
		deps.Login.ResetLoginRate = e.limiter.ResetLogin
	}

	return deps
}

// checkLoginRate maps the limiter's sentinel onto the engine's. A limiter
// backend outage fails closed as rate-limited rather than letting attempts
// bypass the budget.
func (e *Engine) checkLoginRate(ctx context.Context, identifier, ip string) error {
	if err := e.limiter.CheckLogin(ctx, identifier, ip); err != nil {
		return ErrLoginRateLimited
	}
	return nil
}

func (e *Engine) issueAccess(user *directory.User) (string, error) {
	return e.tokens.IssueAccess(token.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Apps:   user.Apps,
	})
}

func (e *Engine) issueRefresh(user *directory.User) (string, error) {
	return e.tokens.IssueRefresh(token.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Apps:   user.Apps,
	})
}
