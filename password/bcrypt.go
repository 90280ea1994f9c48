package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt is a legacy-compatible hasher for directories whose records were
// written by bcrypt-based services. New deployments should prefer [Argon2];
// pairing Bcrypt with upgrade-on-login migrates records transparently.
type Bcrypt struct {
	cost int
}

// NewBcrypt validates cost and returns a hasher. Zero cost selects the
// bcrypt default.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b *Bcrypt) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// NeedsRehash reports whether the stored hash uses a lower cost than
// configured.
func (b *Bcrypt) NeedsRehash(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true, nil
	}
	return cost < b.cost, nil
}
