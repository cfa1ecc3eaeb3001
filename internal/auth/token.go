package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token payload: who, on which device class, until when.
type Claims struct {
	UserID     string `json:"userId"`
	DeviceType string `json:"deviceType"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens. Every token carries the
// same fixed lifetime, and Issue reports that lifetime so the session store
// TTL is always taken from the same value.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds a token issuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for the pair and returns it with its lifetime.
func (t *TokenIssuer) Issue(userID, deviceType string) (string, time.Duration, error) {
	now := time.Now()
	claims := &Claims{
		UserID:     userID,
		DeviceType: deviceType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, t.ttl, nil
}

// Decode verifies the signature and expiry and returns the claims. Any
// failure maps to ErrInvalidToken; callers do not need to distinguish.
func (t *TokenIssuer) Decode(tokenString string) (Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
