package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/auth"
)

// AuthMiddleware validates the identity-provider token and stores the
// caller's identity on the request context.
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Verify(auth.TokenFromRequest(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", identity.UserID)
		c.Set("role", identity.Role)
		c.Next()
	}
}
