package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cracked-app/cracked_api/internal/billing"
)

// RegisterBillingRoutes wires order creation and payment reconciliation.
func RegisterBillingRoutes(r fiber.Router, h *billing.Handler) {
	group := r.Group("/billing")
	group.Post("/orders", h.CreateOrder)
	group.Post("/reconcile", h.Reconcile)
}
