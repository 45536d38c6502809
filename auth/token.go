// Package auth verifies the identity token presented at the WebSocket
// handshake. Token issuance belongs to the upstream auth subsystem; the
// chat core only checks the signature and expiry and extracts the display
// identity.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/T4snimul/owlery/errors"
)

// IdentityClaims is the data the issuer stores inside the JWT.
type IdentityClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Roll   string `json:"roll,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	key []byte
}

func NewVerifier(key []byte) *Verifier {
	return &Verifier{key: key}
}

// Verify parses and validates the signature and expiration of a JWT string
// and returns the verified identity.
func (v *Verifier) Verify(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

// Issue creates a signed token for a user. The server never calls this in
// production; it exists for local development and tests.
func (v *Verifier) Issue(claims IdentityClaims, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "owlery",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.key)
}
