package httpapi

import (
	"net/http"
	"slices"

	"bookstore/internal/auth"

	"github.com/gin-gonic/gin"
)

// CORS answers browser preflights and allows the listed origins. "*" allows
// any origin; an empty list allows any origin outside release mode.
func CORS(origins []string) gin.HandlerFunc {
	allowAny := slices.Contains(origins, "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowAny || slices.Contains(origins, origin) || (len(origins) == 0 && gin.Mode() != gin.ReleaseMode)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, "+auth.TokenHeader)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
