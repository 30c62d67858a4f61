package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// RoleDriver is the only role allowed to plan and accept batches.
const RoleDriver = "driver"

var ErrUnauthorized = errors.New("unauthorized")

// Principal represents the authenticated caller from JWT.
type Principal struct {
	DriverID string
	Role     string
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Claims carried by driver tokens. The driver id travels in "sub".
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseBearer extracts and validates a Bearer JWT from an Authorization header value.
func ParseBearer(header, secret string) (*Principal, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fmt.Errorf("%w: invalid authorization header", ErrUnauthorized)
	}
	return ParseToken(strings.TrimSpace(parts[1]), secret)
}

// ParseToken validates an HS256 token and returns its principal.
func ParseToken(tokenStr, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	c, _ := tok.Claims.(*Claims)
	if c == nil || c.Subject == "" || c.Role == "" {
		return nil, fmt.Errorf("%w: invalid claims", ErrUnauthorized)
	}
	return &Principal{DriverID: c.Subject, Role: strings.ToLower(c.Role)}, nil
}

// Sign issues an HS256 token for driverID. Used by dbtool and tests.
func Sign(driverID, role, secret string, opts ...func(*Claims)) (string, error) {
	c := &Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: driverID},
	}
	for _, opt := range opts {
		opt(c)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
