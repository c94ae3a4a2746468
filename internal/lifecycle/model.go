package lifecycle

import "time"

// UserView is the request-scoped read of a user as the ledger reports it.
type UserView struct {
	Name     string
	Email    string
	Phone    string
	TokenIDs []int64
	Exists   bool
}

// TokenView is the request-scoped read of a token as the ledger reports it.
type TokenView struct {
	ID         int64
	Exists     bool
	Redeemed   bool
	CreatedAt  time.Time
	OwnerPhone string
}

// RegisterInput captures the data required to register a user.
type RegisterInput struct {
	Name  string
	Email string
	Phone string
}
