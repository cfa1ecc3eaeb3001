package auth

import "errors"

var (
	// ErrInvalidRequest indicates missing or malformed input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidDevice indicates a device type outside the closed set.
	ErrInvalidDevice = errors.New("invalid device type")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified gates login until the OTP flow completes.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrAlreadyLoggedIn indicates a live session already exists for the
	// (user, device type) pair.
	ErrAlreadyLoggedIn = errors.New("already logged in on this account")

	// ErrAlreadyRegistered indicates a signup collision with a durable user.
	ErrAlreadyRegistered = errors.New("email already registered")

	// ErrInvalidToken indicates a missing, malformed or expired bearer token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrSessionExpired indicates the token decodes but its session has been
	// revoked, replaced or timed out.
	ErrSessionExpired = errors.New("session expired or logged out")

	// ErrCodeExpiredOrInvalid indicates the OTP does not match or its pending
	// record no longer exists.
	ErrCodeExpiredOrInvalid = errors.New("verification code expired or invalid")
)
