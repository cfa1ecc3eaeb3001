package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cracked-app/cracked_api/internal/auth"
)

// RegisterAuthRoutes wires signup, verification and session endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/signup", h.Signup)
	group.Post("/verify", h.Verify)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/logout", h.Logout)
	group.Get("/check", h.Check)
}
