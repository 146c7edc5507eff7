package auth

import (
	"errors"
	"net/http"

	"bookstore/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenHeader carries the raw session token. The API does not use the
// Authorization/Bearer scheme.
const TokenHeader = "token"

// Authenticator resolves a raw token to an identity.
type Authenticator interface {
	Authenticate(raw string) (Identity, error)
}

// OutcomeRecorder receives one result label per authentication decision.
type OutcomeRecorder interface {
	RecordAuth(op, result string)
}

// RequireToken rejects the request with 401 unless the token header resolves
// to an identity, which is then attached to the request context.
// rec may be nil.
func RequireToken(a Authenticator, rec OutcomeRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.Authenticate(c.GetHeader(TokenHeader))
		if err != nil {
			msg, result := "Invalid token", "invalid_token"
			if errors.Is(err, ErrTokenAbsent) {
				msg, result = "Token absent", "token_absent"
			}
			record(rec, "gate", result)
			logger.FromGin(c).Debug("token rejected", "reason", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		record(rec, "gate", "ok")

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		// Also store on gin context for handler and access-log convenience.
		c.Set("user_id", id.UserID)

		c.Next()
	}
}

func record(rec OutcomeRecorder, op, result string) {
	if rec != nil {
		rec.RecordAuth(op, result)
	}
}
