// Package credentials holds the access token recovered at the end of a
// sign-in flow and the in-memory store the rest of the application reads it
// from.
package credentials

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what this client can read out of the access token itself.
// Claims are display-only; the client holds no provider keys and never makes
// authorization decisions from them.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Credential is the authentication material produced by a successful sign-in
// session.
type Credential struct {
	AccessToken string
	ExpiresIn   int // provider-declared lifetime in seconds, advisory only
	AcquiredAt  time.Time
	Identity    Identity
}

// New builds a Credential, deriving the identity when the access token is a
// JWT. Opaque tokens yield an empty identity.
func New(accessToken string, expiresIn int, acquiredAt time.Time) Credential {
	return Credential{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		AcquiredAt:  acquiredAt,
		Identity:    deriveIdentity(accessToken),
	}
}

func deriveIdentity(accessToken string) Identity {
	if strings.Count(accessToken, ".") != 2 {
		return Identity{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return Identity{}
	}
	var identity Identity
	if sub, err := claims.GetSubject(); err == nil {
		identity.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity
}
