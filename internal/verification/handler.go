package verification

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/ledger"
)

// Handler exposes the redemption endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a verification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type tokenRequest struct {
	TokenID int64 `json:"token_id"`
}

// VerifyAndRedeem handles a verifier scanning a token. Requires a verifier
// session established by the auth middleware.
func (h *Handler) VerifyAndRedeem(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.service.VerifyAndRedeem(c.UserContext(), req.TokenID)
	if err != nil {
		switch {
		case errors.Is(err, ErrConsistency):
			return fiber.NewError(http.StatusInternalServerError, "ledger consistency fault")
		case errors.Is(err, ledger.ErrUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	if !outcome.Valid {
		return c.Status(http.StatusOK).JSON(fiber.Map{"valid": false})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"valid":            true,
		"redeemed":         outcome.Redeemed,
		"already_redeemed": outcome.AlreadyRedeemed,
		"user": fiber.Map{
			"name":  outcome.Owner.Name,
			"email": outcome.Owner.Email,
		},
	})
}

// Redeem handles the direct server-to-server redemption path.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Redeem(c.UserContext(), req.TokenID); err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownToken):
			return fiber.NewError(http.StatusNotFound, "unknown token")
		case errors.Is(err, ledger.ErrAlreadyRedeemed):
			return fiber.NewError(http.StatusConflict, "token already redeemed")
		case errors.Is(err, ledger.ErrUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}
