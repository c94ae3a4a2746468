package verifier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service authenticates verifiers against the directory and manages their
// sessions. A successful login produces an opaque token; the Verification
// Gate only ever sees that token, never the credentials.
type Service struct {
	directory  Directory
	sessions   SessionStore
	sessionTTL time.Duration
}

// NewService constructs a verifier service.
func NewService(directory Directory, sessions SessionStore, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	return &Service{directory: directory, sessions: sessions, sessionTTL: sessionTTL}
}

// Session describes an authenticated verifier session.
type Session struct {
	Token     string
	Username  string
	ExpiresIn time.Duration
}

// Login checks the username and secret against the directory and, on success,
// stores a fresh session token. Username matching is exact and
// case-sensitive; the secret comparison happens inside bcrypt.
func (s *Service) Login(ctx context.Context, username, secret string) (Session, error) {
	v, err := s.directory.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword(v.SecretHash, []byte(secret)); err != nil {
		return Session{}, ErrUnauthorized
	}

	token := uuid.NewString()
	if err := s.sessions.Put(ctx, token, v.Username, s.sessionTTL); err != nil {
		return Session{}, err
	}

	return Session{Token: token, Username: v.Username, ExpiresIn: s.sessionTTL}, nil
}

// Resolve maps a session token back to the verifier username.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	return s.sessions.Get(ctx, token)
}

// Logout deletes the session for the given token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
