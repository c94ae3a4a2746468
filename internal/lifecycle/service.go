package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/meal-token/meal_token/internal/ledger"
)

// Service owns the register and issue steps of the token lifecycle. All state
// lives in the ledger; the service holds no copy beyond request-scoped reads.
type Service struct {
	ledger ledger.Ledger
}

// NewService constructs a lifecycle service over the provided ledger.
func NewService(l ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// Register creates a user for the (phone, email) identity. The result
// reflects the ledger's commit verdict, never an optimistic local guess.
func (s *Service) Register(ctx context.Context, input RegisterInput) error {
	if input.Name == "" || input.Email == "" || input.Phone == "" {
		return fmt.Errorf("name, email and phone_number are required")
	}
	return s.ledger.RegisterUser(ctx, input.Name, input.Email, input.Phone)
}

// IssueToken mints a new token owned by phone and returns the identifier the
// ledger assigned. Re-issuance for a user already holding an unredeemed token
// is allowed; every call produces a fresh token.
func (s *Service) IssueToken(ctx context.Context, phone string) (int64, error) {
	if phone == "" {
		return 0, fmt.Errorf("phone_number is required")
	}
	return s.ledger.IssueToken(ctx, phone)
}

// UserInfo reads the user for the (phone, email) identity. An unknown user
// is reported as a view with Exists false rather than an error, matching the
// boundary contract.
func (s *Service) UserInfo(ctx context.Context, phone, email string) (UserView, error) {
	user, err := s.ledger.GetUserInfo(ctx, phone, email)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownUser) {
			return UserView{Exists: false}, nil
		}
		return UserView{}, err
	}
	return UserView{
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		TokenIDs: user.TokenIDs,
		Exists:   true,
	}, nil
}

// TokenInfo reads a token's current state. Unknown tokens become a view with
// Exists false.
func (s *Service) TokenInfo(ctx context.Context, tokenID int64) (TokenView, error) {
	token, err := s.ledger.GetTokenInfo(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownToken) {
			return TokenView{ID: tokenID, Exists: false}, nil
		}
		return TokenView{}, err
	}
	return TokenView{
		ID:         token.ID,
		Exists:     true,
		Redeemed:   token.Redeemed,
		CreatedAt:  token.CreatedAt,
		OwnerPhone: token.OwnerPhone,
	}, nil
}
