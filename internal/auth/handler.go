package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes signup, verification and session endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// BearerFromHeader extracts the bearer token from the Authorization header.
func BearerFromHeader(c *fiber.Ctx) (string, error) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(authz[len("Bearer "):]), nil
}

// HTTPError maps domain errors onto fiber errors with the right status code.
// Anything unrecognized is downgraded to a generic 500 without leaking
// internals.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidDevice),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrCodeExpiredOrInvalid):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmailNotVerified):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrAlreadyLoggedIn):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "server error")
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email      string `json:"email"`
	OTP        string `json:"otp"`
	DeviceType string `json:"device_type"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceType string `json:"device_type"`
}

type subscriptionResponse struct {
	PlanName         string `json:"plan_name,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	ExpiresAt        string `json:"expires_at,omitempty"`
}

type sessionResponse struct {
	AccessToken  string               `json:"access_token"`
	ExpiresIn    int64                `json:"expires_in"`
	UserID       string               `json:"user_id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Subscription subscriptionResponse `json:"subscription"`
}

func newSessionResponse(res LoginResult) sessionResponse {
	out := sessionResponse{
		AccessToken: res.Token,
		ExpiresIn:   res.ExpiresIn,
		UserID:      res.User.ID,
		Name:        res.User.Name,
		Email:       res.User.Email,
		Subscription: subscriptionResponse{
			PlanName:         res.Subscription.PlanName,
			RemainingSeconds: res.Subscription.RemainingSeconds,
		},
	}
	if !res.Subscription.ExpiresAt.IsZero() {
		out.Subscription.ExpiresAt = res.Subscription.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return out
}

// Signup starts the email verification flow.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.RequestSignup(c.UserContext(), req.Email, req.Name, req.Password); err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "verification code sent"})
}

// Verify confirms the OTP and logs the new account in.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.ConfirmVerification(c.UserContext(), req.Email, req.OTP, req.DeviceType)
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(newSessionResponse(res))
}

// Login authenticates credentials and opens a session for the device.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Login(c.UserContext(), req.Email, req.Password, req.DeviceType)
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(newSessionResponse(res))
}

// Logout revokes the presented token's session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	token, err := BearerFromHeader(c)
	if err != nil {
		return HTTPError(err)
	}
	if err := h.service.Logout(c.UserContext(), token); err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

// Check reports whether the presented token still names a live session.
func (h *Handler) Check(c *fiber.Ctx) error {
	token, err := BearerFromHeader(c)
	if err != nil {
		return HTTPError(err)
	}
	userID, err := h.service.CheckSession(c.UserContext(), token)
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "user_id": userID})
}
