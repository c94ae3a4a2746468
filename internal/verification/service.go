package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meal-token/meal_token/internal/ledger"
	"github.com/meal-token/meal_token/internal/notification"
)

// ErrConsistency indicates the ledger reported a state the core's invariants
// rule out, such as a token whose owner does not exist. It always aborts the
// operation and is logged, never silently swallowed.
var ErrConsistency = errors.New("ledger consistency fault")

// Owner identifies the user a redeemed token belongs to.
type Owner struct {
	Name  string
	Email string
}

// Outcome is the verdict of a verify-and-redeem attempt.
type Outcome struct {
	Valid           bool
	Redeemed        bool
	AlreadyRedeemed bool
	Owner           Owner
}

// Service is the only path by which a token transitions to redeemed. It
// serializes the read-check-write sequence per token id so concurrent
// verifiers cannot both observe an unredeemed token and race on the write.
type Service struct {
	ledger   ledger.Ledger
	locks    *keyedMutex
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a verification gate over the provided ledger.
func NewService(l ledger.Ledger, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{ledger: l, locks: newKeyedMutex(), notifier: notifier, logger: logger}
}

// VerifyAndRedeem checks the token and redeems it if it is still unconsumed.
// An already-redeemed token is a benign, idempotent outcome, not an error.
func (s *Service) VerifyAndRedeem(ctx context.Context, tokenID int64) (Outcome, error) {
	s.locks.lock(tokenID)
	defer s.locks.unlock(tokenID)

	token, err := s.ledger.GetTokenInfo(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownToken) {
			return Outcome{Valid: false}, nil
		}
		return Outcome{}, err
	}

	alreadyRedeemed := token.Redeemed
	if !alreadyRedeemed {
		switch err := s.ledger.RedeemToken(ctx, tokenID); {
		case err == nil:
		case errors.Is(err, ledger.ErrAlreadyRedeemed):
			// Lost the race against another verifier. Re-read and report the
			// idempotent outcome instead of a hard failure.
			reread, rerr := s.ledger.GetTokenInfo(ctx, tokenID)
			if rerr != nil {
				return Outcome{}, rerr
			}
			if !reread.Redeemed {
				return Outcome{}, s.consistencyFault(ctx, tokenID, "redeem rejected but token reads unredeemed")
			}
			alreadyRedeemed = true
		case errors.Is(err, ledger.ErrUnknownToken):
			return Outcome{}, s.consistencyFault(ctx, tokenID, "token vanished between read and redeem")
		default:
			return Outcome{}, err
		}
	}

	owner, err := s.ledger.GetUserByPhone(ctx, token.OwnerPhone)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownUser) {
			return Outcome{}, s.consistencyFault(ctx, tokenID, "token owner does not exist")
		}
		return Outcome{}, err
	}

	if !alreadyRedeemed && s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTokenRedeemed,
			Destination: owner.Phone,
			Body:        fmt.Sprintf("token %d redeemed", tokenID),
		})
	}

	return Outcome{
		Valid:           true,
		Redeemed:        true,
		AlreadyRedeemed: alreadyRedeemed,
		Owner:           Owner{Name: owner.Name, Email: owner.Email},
	}, nil
}

// Redeem is the direct redemption path for trusted internal callers. It holds
// the same per-token lock but skips owner resolution.
func (s *Service) Redeem(ctx context.Context, tokenID int64) error {
	s.locks.lock(tokenID)
	defer s.locks.unlock(tokenID)

	return s.ledger.RedeemToken(ctx, tokenID)
}

func (s *Service) consistencyFault(ctx context.Context, tokenID int64, detail string) error {
	if s.logger != nil {
		s.logger.Error("ledger consistency fault", "token_id", tokenID, "detail", detail)
	}
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind: notification.KindConsistencyFault,
			Body: fmt.Sprintf("token %d: %s", tokenID, detail),
		})
	}
	return fmt.Errorf("%w: token %d: %s", ErrConsistency, tokenID, detail)
}
