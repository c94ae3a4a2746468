package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyRegistered occurs when a user already exists for the
	// (phone, email) pair passed to RegisterUser.
	ErrAlreadyRegistered = errors.New("user already registered")

	// ErrUnknownUser indicates no user record exists for the given identity.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUnknownToken indicates no token record exists for the given id.
	ErrUnknownToken = errors.New("unknown token")

	// ErrAlreadyRedeemed indicates the token's redeemed flag was already set
	// when a redeem write arrived. Callers racing on the same token should
	// treat this as a benign verdict and re-read the token state.
	ErrAlreadyRedeemed = errors.New("token already redeemed")

	// ErrUnavailable indicates the ledger backend did not answer within its
	// bounded interval. No partial state may be assumed committed.
	ErrUnavailable = errors.New("ledger unavailable")
)

// UserRecord is the validated shape of a user row as the ledger reports it.
type UserRecord struct {
	Name     string
	Email    string
	Phone    string
	TokenIDs []int64
}

// TokenRecord is the validated shape of a token row as the ledger reports it.
type TokenRecord struct {
	ID         int64
	Redeemed   bool
	CreatedAt  time.Time
	OwnerPhone string
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Token identifiers are assigned by the backend and handed back from the
// issuing write; callers never compute them locally. Writes are atomic and
// first-writer-wins on the redeemed flag; reads always reflect the caller's
// own completed writes.
type Ledger interface {
	RegisterUser(ctx context.Context, name, email, phone string) error
	IssueToken(ctx context.Context, phone string) (int64, error)
	RedeemToken(ctx context.Context, tokenID int64) error
	GetUserInfo(ctx context.Context, phone, email string) (UserRecord, error)
	GetUserByPhone(ctx context.Context, phone string) (UserRecord, error)
	GetTokenInfo(ctx context.Context, tokenID int64) (TokenRecord, error)
}
