package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/verifier"
)

// RegisterVerifierRoutes wires verifier session endpoints. Login is rate
// limited per username.
func RegisterVerifierRoutes(r fiber.Router, h *verifier.Handler, rateLimiter fiber.Handler) {
	r.Post("/verifier/login", rateLimiter, h.Login)
	r.Post("/verifier/logout", h.Logout)
}
