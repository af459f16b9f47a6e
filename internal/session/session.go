// Package session holds the signed-in user's bearer credential. The credential
// is issued and refreshed elsewhere; this package only reads it.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Credential struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type claims struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// FromToken builds a credential from a bearer token. When the token is a JWT
// its claims are read without verifying the signature; the backend verifies it
// on every request. Opaque tokens are kept as they are.
func FromToken(token string) Credential {
	if token == "" {
		return Credential{}
	}

	cred := Credential{Token: token}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return cred
	}

	cred.Email = c.Email
	cred.UserID = c.UserID
	if cred.UserID == "" {
		cred.UserID = c.Subject
	}
	if c.ExpiresAt != nil {
		cred.ExpiresAt = c.ExpiresAt.Time
	}

	return cred
}

func (c Credential) Present() bool {
	return c.Token != ""
}

// Expired reports whether the token carried an expiry that has passed.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// OwnerID keys the local cart cache for this session. A token without identity
// claims is keyed by its own digest, so only an absent credential has no owner.
func (c Credential) OwnerID() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.Email != "":
		return c.Email
	case c.Token != "":
		sum := sha256.Sum256([]byte(c.Token))
		return "token-" + hex.EncodeToString(sum[:12])
	default:
		return ""
	}
}
