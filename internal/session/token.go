package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the fields of the token payload the UI relies on.
// They are decoded without signature verification and are only used for display
// and route gating; the API server remains the authority.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the expiry timestamp, zero if the token carries none
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiredAt reports whether the claims are expired at the given instant.
// A token whose expiry is at or before now is expired; a token without expiry never validates.
func (c *Claims) ExpiredAt(now time.Time) bool {
	exp := c.ExpiresAtTime()
	return exp.IsZero() || !exp.After(now)
}

func (c *Claims) clone() *Claims {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ExpiresAt != nil {
		exp := *c.ExpiresAt
		cp.ExpiresAt = &exp
	}
	if c.IssuedAt != nil {
		iat := *c.IssuedAt
		cp.IssuedAt = &iat
	}
	if c.NotBefore != nil {
		nbf := *c.NotBefore
		cp.NotBefore = &nbf
	}
	if c.Audience != nil {
		cp.Audience = append(jwt.ClaimStrings(nil), c.Audience...)
	}
	return &cp
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Decode parses the token payload without verifying its signature
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	_, parts, err := parser.ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// NumericDate drops sub-second precision; exp may be fractional
	if claims.ExpiresAt != nil {
		if exp, ok := fractionalExpiry(parts[1]); ok {
			claims.ExpiresAt = &jwt.NumericDate{Time: exp}
		}
	}

	return claims, nil
}

func fractionalExpiry(segment string) (time.Time, bool) {
	raw, err := parser.DecodeSegment(segment)
	if err != nil {
		return time.Time{}, false
	}

	var payload struct {
		Exp json.Number `json:"exp"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Exp == "" {
		return time.Time{}, false
	}

	f, err := payload.Exp.Float64()
	if err != nil {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))), true
}

// Validate decodes the token and checks its expiry against now
func Validate(token string, now time.Time) (*Claims, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}

	if claims.ExpiredAt(now) {
		return nil, fmt.Errorf("%w at %s", ErrTokenExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}

	return claims, nil
}
