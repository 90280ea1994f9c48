package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("revocation store unavailable")

// minTTL guards against zero/negative expirations racing token expiry.
const minTTL = time.Second

// Key derives the revocation set member for a compact token string.
// Hashing keeps raw tokens out of the store and gives fixed-size keys, and
// membership can be checked before any signature verification work.
func Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Store is the revocation set shared by all token service instances.
//
// Revoke marks a key unusable for ttl and reports whether this call was the
// first to do so. The first-revoker-wins semantic is the atomic test-and-set
// that rotation relies on: under concurrent rotation of one refresh token,
// exactly one caller observes first=true. Records expire with the token they
// shadow, so the set stays bounded.
type Store interface {
	Revoke(ctx context.Context, key string, ttl time.Duration) (first bool, err error)
	IsRevoked(ctx context.Context, key string) (bool, error)
}
