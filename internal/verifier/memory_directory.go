package verifier

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type memoryDirectory struct {
	mu        sync.RWMutex
	verifiers map[string]Verifier
}

// NewMemoryDirectory builds an in-memory verifier directory seeded from
// username/secret pairs. Secrets are hashed at seed time so the plaintext is
// never retained.
func NewMemoryDirectory(credentials map[string]string) (Directory, error) {
	dir := &memoryDirectory{verifiers: make(map[string]Verifier)}
	for username, secret := range credentials {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		dir.verifiers[username] = Verifier{Username: username, SecretHash: hash}
	}
	return dir, nil
}

func (d *memoryDirectory) FindByUsername(_ context.Context, username string) (Verifier, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.verifiers[username]
	if !ok {
		return Verifier{}, ErrUnauthorized
	}
	return v, nil
}
