package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the lifetime of every session token.
const SessionTTL = 4 * time.Hour

var (
	// ErrTokenAbsent means the request carried no token at all.
	ErrTokenAbsent = errors.New("token absent")
	// ErrInvalidToken covers every verification failure. Reasons are not
	// distinguished to callers.
	ErrInvalidToken = errors.New("invalid token")
)

// Manager mints and verifies HS256 session tokens with one shared secret.
// It is safe for concurrent use; the secret is never mutated after construction.
type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    SessionTTL,
		clock:  time.Now,
	}, nil
}

/* ===================== ISSUE ===================== */

// Issue signs a session for userID valid from now until now+SessionTTL.
func (m *Manager) Issue(now time.Time, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("issue token: invalid user id %d", userID)
	}
	claims := Claims{
		Subject:   userID,
		Role:      RoleUser,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

/* ===================== VERIFY ===================== */

// Verify checks signature, algorithm and expiry as of now. Any failure is
// reported as ErrInvalidToken; the underlying cause is wrapped for logging.
// iat is not checked, so skew between issuing and verifying hosts is harmless.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		// jwt rejects now >= exp; a token is only expired once exp is in the past.
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject <= 0 {
		return Claims{}, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	return claims, nil
}

/* ===================== GATE ===================== */

// Authenticate resolves a raw header value to the caller identity.
// It never touches storage: a token stays valid until expiry even if its user
// has been deleted since.
func (m *Manager) Authenticate(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrTokenAbsent
	}
	claims, err := m.Verify(raw, m.clock())
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.Subject}, nil
}
