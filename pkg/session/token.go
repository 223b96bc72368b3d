package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	jwt.RegisteredClaims

	// Role is the account's role display name as stored by the account
	// service, e.g. "Project Manager" or "College Dean".
	Role string `json:"role,omitempty"`
}

type Verified struct {
	AccountID string
	Role      string
	ExpiresAt time.Time
}

// Verify checks an HS256 session token and returns the actor identity it
// carries. The subject claim is the account id; the role claim is captured
// from the actor's session, not re-derived per request.
func Verify(tokenString string, secret string, now time.Time) (*Verified, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &TokenClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now) {
		return nil, fmt.Errorf("token not active yet")
	}

	accountID := strings.TrimSpace(claims.Subject)
	if accountID == "" {
		return nil, fmt.Errorf("missing subject in token")
	}

	return &Verified{
		AccountID: accountID,
		Role:      strings.TrimSpace(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
