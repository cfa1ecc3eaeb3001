package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cracked-app/cracked_api/internal/auth"
	"github.com/cracked-app/cracked_api/internal/billing"
	"github.com/cracked-app/cracked_api/internal/config"
	"github.com/cracked-app/cracked_api/internal/identity"
	"github.com/cracked-app/cracked_api/internal/middleware"
	"github.com/cracked-app/cracked_api/internal/notification"
	"github.com/cracked-app/cracked_api/internal/store"
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
	// In-memory fallbacks exist for tests and local hacking only.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if len(d.Cfg.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(d.Cfg.AllowedOrigins, ","),
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders: "Content-Type, Authorization",
		}))
	}

	RegisterHealthRoutes(app, d)

	var (
		users    identity.Repository
		subs     billing.Repository
		sessions store.SessionStore
		pending  store.PendingStore
	)
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
		subs = billing.NewPostgresRepository(d.DB)
	} else {
		users = identity.NewMemoryRepository()
		subs = billing.NewMemoryRepository()
	}
	if d.Cache != nil {
		sessions = store.NewRedisSessionStore(d.Cache)
		pending = store.NewRedisPendingStore(d.Cache)
	} else {
		sessions = store.NewMemorySessionStore()
		pending = store.NewMemoryPendingStore()
	}

	var notifier notification.Notifier
	if d.Cfg.ResendAPIKey != "" && d.Cfg.EmailFrom != "" {
		notifier = notification.NewResendMailer(d.Cfg.ResendAPIKey, d.Cfg.EmailFrom, d.Logger)
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	tokens := auth.NewTokenIssuer(d.Cfg.JWTSecret, d.Cfg.SessionTTL)
	authSvc := auth.NewService(users, sessions, pending, tokens, notifier,
		subscriptionSource{repo: subs}, d.Cfg.VerifyTTL)
	authHandler := auth.NewHandler(authSvc)

	var gateway billing.Gateway
	if d.Cfg.GatewayKeyID != "" {
		gateway = billing.NewHTTPGateway(d.Cfg.GatewayKeyID, d.Cfg.GatewaySecret)
	} else {
		gateway = billing.StaticGateway{}
	}
	billingSvc := billing.NewService(subs, gateway, authSvc, d.Cfg.GatewaySecret)
	billingHandler := billing.NewHandler(billingSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	RegisterBillingRoutes(api, billingHandler)

	return nil
}

// subscriptionSource adapts the billing ledger to the summary shape login
// responses carry.
type subscriptionSource struct {
	repo billing.Repository
}

func (s subscriptionSource) SummaryFor(ctx context.Context, userID string) (auth.SubscriptionSummary, error) {
	sub, err := s.repo.Find(ctx, userID)
	if err != nil {
		return auth.SubscriptionSummary{}, err
	}
	return auth.SubscriptionSummary{
		PlanName:         sub.PlanName,
		RemainingSeconds: sub.RemainingSeconds,
		ExpiresAt:        sub.ExpiresAt,
	}, nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
