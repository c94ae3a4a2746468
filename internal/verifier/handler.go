package verifier

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes verifier session endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a verifier handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// Login authenticates a verifier and returns an opaque session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	sess, err := h.service.Login(c.UserContext(), req.Username, req.Secret)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"session_token": sess.Token,
		"expires_in":    int64(sess.ExpiresIn.Seconds()),
	})
}

// Logout deletes the caller's session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return fiber.NewError(http.StatusBadRequest, "missing bearer token")
	}
	token := strings.TrimSpace(authz[len("Bearer "):])

	if err := h.service.Logout(c.UserContext(), token); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
