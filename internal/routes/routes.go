package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meal-token/meal_token/internal/config"
	"github.com/meal-token/meal_token/internal/ledger"
	"github.com/meal-token/meal_token/internal/lifecycle"
	"github.com/meal-token/meal_token/internal/middleware"
	"github.com/meal-token/meal_token/internal/notification"
	"github.com/meal-token/meal_token/internal/verification"
	"github.com/meal-token/meal_token/internal/verifier"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Ledger backend: Postgres when a database is wired, in-memory otherwise.
	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB, d.Cfg.LedgerTimeout)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	var directory verifier.Directory
	if d.DB != nil {
		directory = verifier.NewPostgresDirectory(d.DB)
	} else {
		var err error
		directory, err = verifier.NewMemoryDirectory(d.Cfg.VerifierCredentials)
		if err != nil {
			return err
		}
	}

	var sessions verifier.SessionStore
	if d.Cache != nil {
		sessions = verifier.NewRedisSessionStore(d.Cache)
	} else {
		sessions = verifier.NewMemorySessionStore()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	lifecycleSvc := lifecycle.NewService(ledgerBackend)
	verifierSvc := verifier.NewService(directory, sessions, d.Cfg.SessionTTL)
	gate := verification.NewService(ledgerBackend, notifier, d.Logger)

	lifecycleHandler := lifecycle.NewHandler(lifecycleSvc)
	verifierHandler := verifier.NewHandler(verifierSvc)
	verificationHandler := verification.NewHandler(gate)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public lifecycle routes
	RegisterLifecycleRoutes(api, lifecycleHandler)

	// Verifier session routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterVerifierRoutes(api, verifierHandler, rateLimiter)

	// Redemption routes
	sessionAuth := middleware.VerifierAuth(verifierSvc)
	RegisterVerificationRoutes(api, verificationHandler, sessionAuth)

	return nil
}
