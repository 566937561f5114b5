package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the visitor cookie carrying the signed session token
const CookieName = "csvpilot_session"

// CookieCodec signs and verifies the per-visitor session cookie.
// The token carries only the visitor ID; entitlement state lives in the
// session store, never in the cookie itself.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewCookieCodec(secret string, ttl time.Duration) *CookieCodec {
	return &CookieCodec{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue creates a signed token for the given visitor ID
func (c *CookieCodec) Issue(visitorID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   visitorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies a token and returns the visitor ID it was issued for
func (c *CookieCodec) Parse(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}

	return claims.Subject, nil
}

func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}
