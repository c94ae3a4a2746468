package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/verification"
)

// RegisterVerificationRoutes wires the redemption endpoints. The verify path
// requires an authenticated verifier session; the direct redeem path is for
// trusted server-to-server callers and must not be exposed to end users.
func RegisterVerificationRoutes(r fiber.Router, h *verification.Handler, sessionAuth fiber.Handler) {
	r.Post("/verify-token", sessionAuth, h.VerifyAndRedeem)
	r.Post("/redeem-token", h.Redeem)
}
