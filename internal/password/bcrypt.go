package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and checks secrets with bcrypt. It is used for admin
// passwords and activation PINs.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher; cost <= 0 selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare returns nil when secret matches hash.
func (h *Hasher) Compare(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}
