package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spardha-tech/spardha-backend/internal/response"
	"github.com/spardha-tech/spardha-backend/internal/service"
)

// CheckSingleDeviceSession validates the JWT's JTI against the active session
// in Redis. A stale JTI means the session was reset by an organizer (or a
// newer login won), and the request is rejected.
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only participants are single-device restricted.
		if claims.TokenType != service.TokenTypeParticipant {
			c.Next()
			return
		}

		if err := authService.ValidateParticipantSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
