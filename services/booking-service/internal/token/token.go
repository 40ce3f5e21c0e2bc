// Package token issues reschedule tokens. Only the bcrypt hash is stored;
// the plaintext is handed to the guest once.
package token

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt cost for reschedule token hashes.
const Cost = bcrypt.MinCost + 4

// Issued is a freshly generated token.
type Issued struct {
	Plain string
	Hash  string
}

func New() (Issued, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return Issued{}, err
	}
	plain := base64.RawURLEncoding.EncodeToString(b[:])
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Plain: plain, Hash: string(hash)}, nil
}

// Matches reports whether plain is the token behind hash.
func Matches(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
