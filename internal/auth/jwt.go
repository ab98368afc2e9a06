package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what the BFF reads from the API's token. The signature belongs to
// the remote API, so only its expiry and identity are read, and only from a
// token that arrived in a login response or inside a verified session cookie.
type Claims struct {
	UserID flexibleID `json:"userId,omitempty"`
	Email  string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// flexibleID accepts both string and numeric ids.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = flexibleID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*id = flexibleID(s)
	return nil
}

// ParseToken decodes the claims of a token without verifying it.
func ParseToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expired reports whether the token's exp has passed. Tokens without exp never expire here.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Identity is the most specific user identifier the token carries.
func (c *Claims) Identity() string {
	switch {
	case c.UserID != "":
		return string(c.UserID)
	case c.Subject != "":
		return c.Subject
	}
	return c.Email
}
