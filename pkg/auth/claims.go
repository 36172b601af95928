package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the caller identity the rewards core trusts as its tenant
// boundary. Only UID matters for ownership checks; email and name ride along
// for display.
type Identity struct {
	UID   uuid.UUID
	Email string
	Name  string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UID   uuid.UUID `json:"uid"`
	Email string    `json:"email,omitempty"`
	Name  string    `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller identity.
func (c *AccessTokenClaims) Identity() Identity {
	return Identity{UID: c.UID, Email: c.Email, Name: c.Name}
}
