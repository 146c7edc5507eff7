package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// RoleUser is the only role minted. It travels in every token but no route
// consults it.
const RoleUser = "user"

// Claims is the session payload. The subject is the numeric user id and is
// encoded as a JSON number, not the string form RegisteredClaims would use.
type Claims struct {
	Subject   int64            `json:"sub"`
	Role      string           `json:"role"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

func (c Claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Subject, 10), nil
}
