package ledger

import (
	"context"
	"sync"
	"time"
)

type userKey struct {
	phone string
	email string
}

type inMemoryLedger struct {
	mu      sync.RWMutex
	users   map[userKey]*UserRecord
	byPhone map[string]userKey
	tokens  map[int64]TokenRecord
	nextID  int64
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and local development without a database.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		users:   make(map[userKey]*UserRecord),
		byPhone: make(map[string]userKey),
		tokens:  make(map[int64]TokenRecord),
		nextID:  1,
	}
}

func (l *inMemoryLedger) RegisterUser(_ context.Context, name, email, phone string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := userKey{phone: phone, email: email}
	if _, exists := l.users[key]; exists {
		return ErrAlreadyRegistered
	}

	l.users[key] = &UserRecord{Name: name, Email: email, Phone: phone}
	l.byPhone[phone] = key
	return nil
}

func (l *inMemoryLedger) IssueToken(_ context.Context, phone string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, ok := l.byPhone[phone]
	if !ok {
		return 0, ErrUnknownUser
	}
	user := l.users[key]

	id := l.nextID
	l.nextID++

	l.tokens[id] = TokenRecord{
		ID:         id,
		Redeemed:   false,
		CreatedAt:  time.Now().UTC(),
		OwnerPhone: phone,
	}
	user.TokenIDs = append(user.TokenIDs, id)

	return id, nil
}

func (l *inMemoryLedger) RedeemToken(_ context.Context, tokenID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	token, ok := l.tokens[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	if token.Redeemed {
		return ErrAlreadyRedeemed
	}

	token.Redeemed = true
	l.tokens[tokenID] = token
	return nil
}

func (l *inMemoryLedger) GetUserInfo(_ context.Context, phone, email string) (UserRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	user, ok := l.users[userKey{phone: phone, email: email}]
	if !ok {
		return UserRecord{}, ErrUnknownUser
	}

	out := *user
	out.TokenIDs = append([]int64(nil), user.TokenIDs...)
	return out, nil
}

func (l *inMemoryLedger) GetUserByPhone(_ context.Context, phone string) (UserRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	key, ok := l.byPhone[phone]
	if !ok {
		return UserRecord{}, ErrUnknownUser
	}

	user := l.users[key]
	out := *user
	out.TokenIDs = append([]int64(nil), user.TokenIDs...)
	return out, nil
}

func (l *inMemoryLedger) GetTokenInfo(_ context.Context, tokenID int64) (TokenRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	token, ok := l.tokens[tokenID]
	if !ok {
		return TokenRecord{}, ErrUnknownToken
	}
	return token, nil
}
