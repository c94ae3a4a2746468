package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/verifier"
)

const verifierLocal = "verifier_username"

// VerifierAuth returns a middleware that resolves the bearer session token
// against the verifier session store. Requests without a valid session are
// rejected before any service or ledger call runs.
func VerifierAuth(verifiers *verifier.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		username, err := verifiers.Resolve(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, verifier.ErrUnauthorized) {
				return fiber.NewError(http.StatusUnauthorized, "invalid or expired session")
			}
			return fiber.NewError(http.StatusInternalServerError, "session lookup failed")
		}

		c.Locals(verifierLocal, username)
		return c.Next()
	}
}

// VerifierUsername reads the authenticated verifier from the request, if any.
func VerifierUsername(c *fiber.Ctx) string {
	username, _ := c.Locals(verifierLocal).(string)
	return username
}
