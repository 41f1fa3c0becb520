package random

import (
	cryptoRand "crypto/rand"
	"encoding/base64"
	"io"
)

const stateBytes = 24

type Randomizer struct {
	source io.Reader
}

// Bytes returns securely generated random bytes.
// It will return an error if the system's secure random
// number generator fails to function correctly, in which
// case the caller should not continue.
func (r *Randomizer) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	// Note that err == nil only if we read len(b) bytes.
	if _, err := io.ReadFull(r.source, b); err != nil {
		return nil, err
	}
	return b, nil
}

// String returns a URL-safe, base64 encoded
// securely generated random string.
func (r *Randomizer) String(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// State returns a single-use correlation token for an authorization attempt.
func (r *Randomizer) State() (string, error) {
	return r.String(stateBytes)
}

func New() *Randomizer {
	return &Randomizer{source: cryptoRand.Reader}
}

// NewFromReader builds a randomizer over a fixed source. Tests only.
func NewFromReader(source io.Reader) *Randomizer {
	return &Randomizer{source: source}
}
