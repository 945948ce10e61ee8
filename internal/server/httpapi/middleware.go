package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// requireAccessToken accepts "Authorization: Bearer <jwt>" for a token that
// is valid and not revoked, and stores its claims on the context.
func (s *HTTPServer) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			s.writeError(c, common.ErrorUnauthorized)
			c.Abort()
			return
		}

		claims, err := s.sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}
