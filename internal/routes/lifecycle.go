package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/lifecycle"
)

// RegisterLifecycleRoutes wires registration, issuance and read endpoints.
func RegisterLifecycleRoutes(r fiber.Router, h *lifecycle.Handler) {
	r.Post("/register", h.Register)
	r.Post("/issue-token", h.IssueToken)
	r.Get("/user-info", h.UserInfo)
	r.Get("/token-info/:id", h.TokenInfo)
}
