// Package token mints the opaque credentials handed out to participants.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// Number of random bytes. 16 → 128‑bit
const TOKEN_SIZE = 16

// New returns a URL safe random token used for join and confirmation links.
func New() (string, error) {
	b := make([]byte, TOKEN_SIZE)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Barcode returns a badge token: a random UUID in hex without dashes.
func Barcode() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
