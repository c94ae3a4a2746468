package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/meal-token/meal_token/internal/config"
	"github.com/meal-token/meal_token/internal/logging"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	cfg := config.Config{
		AppEnv:              "dev",
		VerifierCredentials: map[string]string{"canteen-1": "scanner-secret"},
	}
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	decoded := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestEndToEndRedemptionFlow(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/register", map[string]string{
		"name": "John Doe", "email": "john@example.com", "phone_number": "3234567890",
	}, nil)
	if status != http.StatusCreated || body["success"] != true {
		t.Fatalf("register failed: %d %v", status, body)
	}

	// Duplicate registration is a typed conflict, not a generic fault.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/register", map[string]string{
		"name": "John Doe", "email": "john@example.com", "phone_number": "3234567890",
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate register, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/issue-token", map[string]string{
		"phone_number": "3234567890",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("issue failed: %d %v", status, body)
	}
	tokenID, ok := body["token_id"].(float64)
	if !ok || tokenID != 1 {
		t.Fatalf("expected token_id 1, got %v", body["token_id"])
	}

	// Verification without a session never reaches the gate.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/verify-token", map[string]any{
		"token_id": int64(tokenID),
	}, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/verifier/login", map[string]string{
		"username": "canteen-1", "secret": "scanner-secret",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("verifier login failed: %d %v", status, body)
	}
	session, _ := body["session_token"].(string)
	if session == "" {
		t.Fatalf("expected a session token, got %v", body)
	}
	auth := map[string]string{fiber.HeaderAuthorization: "Bearer " + session}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/verify-token", map[string]any{
		"token_id": int64(tokenID),
	}, auth)
	if status != http.StatusOK {
		t.Fatalf("verify failed: %d %v", status, body)
	}
	if body["valid"] != true || body["redeemed"] != true || body["already_redeemed"] != false {
		t.Fatalf("unexpected first verify outcome: %v", body)
	}
	user, _ := body["user"].(map[string]any)
	if user["name"] != "John Doe" || user["email"] != "john@example.com" {
		t.Fatalf("unexpected owner: %v", body["user"])
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/verify-token", map[string]any{
		"token_id": int64(tokenID),
	}, auth)
	if status != http.StatusOK || body["already_redeemed"] != true {
		t.Fatalf("expected idempotent second verify, got %d %v", status, body)
	}

	status, body = doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/v1/token-info/%d", int64(tokenID)), nil, nil)
	if status != http.StatusOK {
		t.Fatalf("token info failed: %d", status)
	}
	if body["exists"] != true || body["is_redeemed"] != true || body["owner_phone"] != "3234567890" {
		t.Fatalf("unexpected token info: %v", body)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/user-info?phone_number=3234567890&email=john@example.com", nil, nil)
	if status != http.StatusOK || body["exists"] != true {
		t.Fatalf("unexpected user info: %d %v", status, body)
	}
}

func TestIssueTokenUnknownUser(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/issue-token", map[string]string{
		"phone_number": "0000000000",
	}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", status)
	}
}

func TestDirectRedeemPath(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, fiber.MethodPost, "/api/v1/register", map[string]string{
		"name": "John Doe", "email": "john@example.com", "phone_number": "3234567890",
	}, nil)
	_, body := doJSON(t, app, fiber.MethodPost, "/api/v1/issue-token", map[string]string{
		"phone_number": "3234567890",
	}, nil)
	tokenID := int64(body["token_id"].(float64))

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/redeem-token", map[string]any{
		"token_id": tokenID,
	}, nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("direct redeem failed: %d %v", status, body)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/redeem-token", map[string]any{
		"token_id": tokenID,
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on second redeem, got %d", status)
	}
}

func TestVerifyUnknownTokenReturnsInvalid(t *testing.T) {
	app := setupApp(t)

	_, body := doJSON(t, app, fiber.MethodPost, "/api/v1/verifier/login", map[string]string{
		"username": "canteen-1", "secret": "scanner-secret",
	}, nil)
	session, _ := body["session_token"].(string)
	auth := map[string]string{fiber.HeaderAuthorization: "Bearer " + session}

	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/verify-token", map[string]any{
		"token_id": 999,
	}, auth)
	if status != http.StatusOK || body["valid"] != false {
		t.Fatalf("expected valid=false for unknown token, got %d %v", status, body)
	}
}
