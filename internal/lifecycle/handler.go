package lifecycle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/ledger"
)

// Handler exposes the lifecycle endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a lifecycle handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

// Register creates a user for the submitted identity.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	err := h.service.Register(c.UserContext(), RegisterInput{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAlreadyRegistered):
			return fiber.NewError(http.StatusConflict, "user already registered")
		case errors.Is(err, ledger.ErrUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true})
}

type issueTokenRequest struct {
	Phone string `json:"phone_number"`
}

// IssueToken mints a new token for the submitted phone number.
func (h *Handler) IssueToken(c *fiber.Ctx) error {
	var req issueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	id, err := h.service.IssueToken(c.UserContext(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownUser):
			return fiber.NewError(http.StatusNotFound, "unknown user")
		case errors.Is(err, ledger.ErrUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"token_id": id})
}

// UserInfo reads a user by its (phone, email) identity. Unknown users return
// exists=false rather than an error so callers can branch on existence.
func (h *Handler) UserInfo(c *fiber.Ctx) error {
	phone := c.Query("phone_number")
	email := c.Query("email")
	if phone == "" || email == "" {
		return fiber.NewError(http.StatusBadRequest, "phone_number and email are required")
	}

	view, err := h.service.UserInfo(c.UserContext(), phone, email)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	tokenIDs := view.TokenIDs
	if tokenIDs == nil {
		tokenIDs = []int64{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"name":         view.Name,
		"email":        view.Email,
		"phone_number": view.Phone,
		"token_ids":    tokenIDs,
		"exists":       view.Exists,
	})
}

// TokenInfo reads a token's current state by id.
func (h *Handler) TokenInfo(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "token id must be an integer")
	}

	view, err := h.service.TokenInfo(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	resp := fiber.Map{
		"exists":      view.Exists,
		"is_redeemed": view.Redeemed,
		"owner_phone": view.OwnerPhone,
	}
	if view.Exists {
		resp["creation_time"] = view.CreatedAt
	}
	return c.Status(http.StatusOK).JSON(resp)
}
