package billing

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cracked-app/cracked_api/internal/auth"
)

// Handler exposes order creation and payment reconciliation endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a billing HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrPlanStillActive):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrSessionExpired):
		// Session errors propagate from CheckSession unchanged.
		return auth.HTTPError(err)
	case errors.Is(err, ErrVerificationFailed):
		return fiber.NewError(http.StatusInternalServerError, ErrVerificationFailed.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "server error")
	}
}

type createOrderBody struct {
	Plan string `json:"plan"`
}

// CreateOrder requests a payment-gateway order for the plan.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	bearer, err := auth.BearerFromHeader(c)
	if err != nil {
		return auth.HTTPError(err)
	}
	var req createOrderBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	order, err := h.service.CreateOrder(c.UserContext(), bearer, req.Plan)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"order": order})
}

type reconcileBody struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Plan      string `json:"plan"`
}

// Reconcile validates the relayed gateway callback and credits the plan.
func (h *Handler) Reconcile(c *fiber.Ctx) error {
	bearer, err := auth.BearerFromHeader(c)
	if err != nil {
		return auth.HTTPError(err)
	}
	var req reconcileBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.service.Reconcile(c.UserContext(), ReconcileInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		PlanCode:  req.Plan,
		Bearer:    bearer,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"subscription": fiber.Map{
			"plan_name":         sub.PlanName,
			"remaining_seconds": sub.RemainingSeconds,
			"expires_at":        sub.ExpiresAt,
		},
	})
}
