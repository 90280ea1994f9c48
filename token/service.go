package token

import (
	"context"
	"errors"

	"github.com/veltrix-io/authcore/revocation"
)

// ErrInvalid is the single negative result of token verification. Malformed,
// wrong-kind, expired, revoked, and bad-signature tokens all collapse to it so
// callers cannot be used as a verification oracle.
var ErrInvalid = errors.New("invalid token")

// Service is the token state machine: issue, verify, revoke, rotate. A token
// is valid until it expires (time) or is revoked (explicit); neither state is
// reversible. The service owns the revocation overlay; tokens themselves stay
// stateless.
type Service struct {
	manager *Manager
	revoked revocation.Store
}

// NewService wires a [Manager] to a revocation store.
func NewService(manager *Manager, revoked revocation.Store) (*Service, error) {
	if manager == nil {
		return nil, errors.New("token manager required")
	}
	if revoked == nil {
		return nil, errors.New("revocation store required")
	}
	return &Service{
		manager: manager,
		revoked: revoked,
	}, nil
}

// IssueAccess signs a short-lived access token for sub.
func (s *Service) IssueAccess(sub Subject) (string, error) {
	return s.manager.Issue(sub, KindAccess)
}

// IssueRefresh signs a long-lived refresh token for sub.
func (s *Service) IssueRefresh(sub Subject) (string, error) {
	return s.manager.Issue(sub, KindRefresh)
}

// Verify returns the decoded claims when tokenStr is a live token of the
// expected kind. The revocation set is consulted first: membership is keyed
// on the raw compact string, so a revoked token is rejected before any
// signature work and the revoke-then-replay window stays closed even under
// signature edge cases. Every failure — including a store outage — collapses
// to [ErrInvalid] (fail closed).
func (s *Service) Verify(ctx context.Context, tokenStr string, kind Kind) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalid
	}

	revoked, err := s.revoked.IsRevoked(ctx, revocation.Key(tokenStr))
	if err != nil || revoked {
		return nil, ErrInvalid
	}

	claims, err := s.manager.Parse(tokenStr, kind)
	if err != nil {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Revoke marks a refresh token unusable for the remainder of its natural
// lifetime. Tokens that do not parse as live refresh tokens are a no-op —
// revoking garbage is harmless — and revoking twice is not an error.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := s.manager.Parse(refreshToken, KindRefresh)
	if err != nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.manager.now()) + s.manager.config.Leeway
	if ttl <= 0 {
		return nil
	}

	_, err = s.revoked.Revoke(ctx, revocation.Key(refreshToken), ttl)
	return err
}

// Rotate retires oldRefresh and returns a replacement refresh token for the
// same subject, rebuilt from the embedded snapshot. The revocation write is a
// first-revoker-wins test-and-set: of N concurrent rotations of one token,
// exactly one caller gets a new token and the rest get [ErrInvalid]. On any
// failure no new token is issued.
func (s *Service) Rotate(ctx context.Context, oldRefresh string) (string, error) {
	claims, err := s.Verify(ctx, oldRefresh, KindRefresh)
	if err != nil {
		return "", ErrInvalid
	}

	ttl := claims.ExpiresAt.Time.Sub(s.manager.now()) + s.manager.config.Leeway
	first, err := s.revoked.Revoke(ctx, revocation.Key(oldRefresh), ttl)
	if err != nil {
		return "", err
	}
	if !first {
		// Lost the race: another rotation (or a logout) got here first.
		return "", ErrInvalid
	}

	return s.IssueRefresh(Subject{
		UserID: claims.Subject,
		Email:  claims.Email,
		Apps:   claims.Apps,
	})
}
