package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/strategy"
)

var loginSentinels = LoginErrors{
	EngineNotReady:     errors.New("engine not ready"),
	StrategyNotFound:   errors.New("strategy not found"),
	InvalidCredentials: errors.New("invalid credentials"),
	LoginRateLimited:   errors.New("rate limited"),
}

type stubStrategy struct {
	user *directory.User
	err  error
}

func (s *stubStrategy) Authenticate(context.Context, strategy.Credentials) (*directory.User, error) {
	return s.user, s.err
}

func workingLoginDeps(strat strategy.Strategy) LoginDeps {
	return LoginDeps{
		ResolveStrategy: func(name string) (strategy.Strategy, bool) {
			if name == "password" {
				return strat, true
			}
			return nil, false
		},
		IssueAccess: func(*directory.User) (string, error) {
			return "access", nil
		},
		IssueRefresh: func(*directory.User) (string, error) {
			return "refresh", nil
		},
		Errors: loginSentinels,
	}
}

func TestRunLoginSuccess(t *testing.T) {
	user := &directory.User{ID: "u1", Email: "alice@example.com"}
	deps := workingLoginDeps(&stubStrategy{user: user})

	result, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "alice@example.com"}, deps)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.User != user || result.AccessToken != "access" || result.RefreshToken != "refresh" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunLoginMissingDeps(t *testing.T) {
	deps := workingLoginDeps(&stubStrategy{})
	deps.IssueAccess = nil

	_, err := RunLogin(context.Background(), "password", strategy.Credentials{}, deps)
	if !errors.Is(err, loginSentinels.EngineNotReady) {
		t.Fatalf("expected EngineNotReady, got %v", err)
	}
}

func TestRunLoginUnknownStrategy(t *testing.T) {
	deps := workingLoginDeps(&stubStrategy{})

	_, err := RunLogin(context.Background(), "saml", strategy.Credentials{}, deps)
	if !errors.Is(err, loginSentinels.StrategyNotFound) {
		t.Fatalf("expected StrategyNotFound, got %v", err)
	}
}

func TestRunLoginCollapsesAuthFailures(t *testing.T) {
	for _, authErr := range []error{strategy.ErrAuthenticationFailed, strategy.ErrIdentityNotFound} {
		deps := workingLoginDeps(&stubStrategy{err: authErr})

		_, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "a@b.example"}, deps)
		if !errors.Is(err, loginSentinels.InvalidCredentials) {
			t.Fatalf("%v: expected InvalidCredentials, got %v", authErr, err)
		}
	}
}

func TestRunLoginPropagatesInfraErrors(t *testing.T) {
	infraErr := errors.New("directory down")
	deps := workingLoginDeps(&stubStrategy{err: infraErr})

	incremented := false
	deps.IncrementLoginRate = func(context.Context, string, string) error {
		incremented = true
		return nil
	}

	_, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "a@b.example"}, deps)
	if !errors.Is(err, infraErr) {
		t.Fatalf("expected infra error, got %v", err)
	}
	if errors.Is(err, loginSentinels.InvalidCredentials) {
		t.Fatal("infra error collapsed to invalid credentials")
	}
	if incremented {
		t.Fatal("infra error consumed login attempt budget")
	}
}

func TestRunLoginRateLimitedBeforeStrategy(t *testing.T) {
	resolved := false
	deps := workingLoginDeps(&stubStrategy{user: &directory.User{ID: "u1"}})
	inner := deps.ResolveStrategy
	deps.ResolveStrategy = func(name string) (strategy.Strategy, bool) {
		resolved = true
		return inner(name)
	}
	deps.CheckLoginRate = func(context.Context, string, string) error {
		return errors.New("over budget")
	}

	_, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "a@b.example"}, deps)
	if !errors.Is(err, loginSentinels.LoginRateLimited) {
		t.Fatalf("expected LoginRateLimited, got %v", err)
	}
	if resolved {
		t.Fatal("strategy consulted while rate limited")
	}
}

func TestRunLoginFailureIncrementsBudget(t *testing.T) {
	deps := workingLoginDeps(&stubStrategy{err: strategy.ErrAuthenticationFailed})

	var gotIdentifier, gotIP string
	deps.ClientIPFromContext = func(context.Context) string { return "10.0.0.1" }
	deps.IncrementLoginRate = func(_ context.Context, identifier, ip string) error {
		gotIdentifier, gotIP = identifier, ip
		return nil
	}

	_, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "a@b.example"}, deps)
	if !errors.Is(err, loginSentinels.InvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
	if gotIdentifier != "a@b.example" || gotIP != "10.0.0.1" {
		t.Fatalf("budget keyed wrong: %q %q", gotIdentifier, gotIP)
	}
}

func TestRunLoginOverflowDuringIncrement(t *testing.T) {
	deps := workingLoginDeps(&stubStrategy{err: strategy.ErrAuthenticationFailed})
	deps.IncrementLoginRate = func(context.Context, string, string) error {
		return errors.New("over budget")
	}

	_, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "a@b.example"}, deps)
	if !errors.Is(err, loginSentinels.LoginRateLimited) {
		t.Fatalf("expected LoginRateLimited, got %v", err)
	}
}

func TestRunLoginResetFailureDoesNotFailLogin(t *testing.T) {
	deps := workingLoginDeps(&stubStrategy{user: &directory.User{ID: "u1"}})

	warned := false
	deps.ResetLoginRate = func(context.Context, string, string) error {
		return errors.New("redis down")
	}
	deps.Warn = func(string, ...any) { warned = true }

	result, err := RunLogin(context.Background(), "password", strategy.Credentials{"email": "a@b.example"}, deps)
	if err != nil {
		t.Fatalf("login failed on reset error: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected tokens despite reset failure")
	}
	if !warned {
		t.Fatal("expected a warning for the failed reset")
	}
}

func TestRunLoginUpgradeHookOnlyWithPassword(t *testing.T) {
	user := &directory.User{ID: "u1"}

	var upgrades int
	deps := workingLoginDeps(&stubStrategy{user: user})
	deps.MaybeUpgradeHash = func(_ context.Context, _ *directory.User, password string) {
		upgrades++
		if password == "" {
			t.Fatal("upgrade hook called without a password")
		}
	}

	if _, err := RunLogin(context.Background(), "password", strategy.Credentials{
		"email":    "a@b.example",
		"password": "pw",
	}, deps); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if upgrades != 1 {
		t.Fatalf("expected one upgrade call, got %d", upgrades)
	}

	// Federated-style credentials carry no password; the hook stays silent.
	if _, err := RunLogin(context.Background(), "password", strategy.Credentials{
		"id_token": "external",
	}, deps); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if upgrades != 1 {
		t.Fatalf("hook fired without a password: %d", upgrades)
	}
}

func TestRateIdentifier(t *testing.T) {
	if got := rateIdentifier(strategy.Credentials{"email": "a@b.example", "id_token": "x"}); got != "a@b.example" {
		t.Fatalf("rateIdentifier = %q", got)
	}
	if got := rateIdentifier(strategy.Credentials{"id_token": "x"}); got != "x" {
		t.Fatalf("rateIdentifier = %q", got)
	}
	if got := rateIdentifier(strategy.Credentials{}); got != "" {
		t.Fatalf("rateIdentifier = %q", got)
	}
}
