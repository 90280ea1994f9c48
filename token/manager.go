package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens. A token of one kind
// never validates as the other.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on each authenticated call.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived, single-use-per-rotation tokens.
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload of an issued token. Email and Apps are an
// identity snapshot taken at issue time for stateless downstream checks;
// they are advisory — anything returned to a caller is rebuilt from a fresh
// directory read.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Apps  []string `json:"apps,omitempty"`
	Kind  Kind     `json:"type"`
	jwt.RegisteredClaims
}

// Subject identifies who a token is issued for.
type Subject struct {
	UserID string
	Email  string
	Apps   []string
}

// Config holds signing parameters. Secret is required; construction fails
// without it rather than deferring the error to first use.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Manager signs and parses typed tokens with a symmetric HS256 secret.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates cfg and returns a [Manager]. A missing signing secret
// is a configuration error and fails here.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{
		config: cfg,
		now:    time.Now,
	}, nil
}

// TTL returns the configured lifetime for the given kind.
func (m *Manager) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return m.config.RefreshTTL
	}
	return m.config.AccessTTL
}

// Issue signs a new token of the given kind for sub. Deterministic given
// clock and secret apart from the generated jti; no side effects beyond the
// returned string.
func (m *Manager) Issue(sub Subject, kind Kind) (string, error) {
	if sub.UserID == "" {
		return "", errors.New("subject user id required")
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", fmt.Errorf("unsupported token kind %q", kind)
	}

	now := m.now()
	claims := Claims{
		Email: sub.Email,
		Apps:  sub.Apps,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL(kind))),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies signature, expiry, and kind, returning the decoded claims.
// Errors carry internal detail for diagnostics; [Service.Verify] collapses
// them before they cross the subsystem boundary.
func (m *Manager) Parse(tokenStr string, kind Kind) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("token kind mismatch: have %q, want %q", claims.Kind, kind)
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}

	return claims, nil
}
