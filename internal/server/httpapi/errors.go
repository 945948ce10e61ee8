package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/gin-gonic/gin"
)

// Response bodies. They never carry internal error text.
const (
	msgValidationFailed   = "Validation failed"
	msgInvalidCredentials = "Invalid email or password"
	msgEmailRegistered    = "Email already registered"
	msgUnauthorized       = "Unauthorized"
	msgUnavailable        = "Service temporarily unavailable. Please try again."
	msgUnexpected         = "An unexpected error occurred"
)

// writeError maps the error taxonomy onto a status and a fixed body. Client
// errors are logged at warn level with the server-side cause; everything
// else at error level.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var verr *common.ValidationError
	var perr *common.PolicyError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "details": verr.Violations})
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Reason})
	case errors.Is(err, common.ErrInvalidCredentials):
		s.logger.Warn(ctx, "authentication denied", "path", c.FullPath(), "reason", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": msgEmailRegistered})
	case errors.Is(err, common.ErrTransient):
		s.logger.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenRevoked),
		errors.Is(err, common.ErrRefreshTokenExpired):
		s.logger.Warn(ctx, "unauthorized", "path", c.FullPath(), "reason", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
	default:
		s.logger.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
	}
}

func badBody() error {
	return &common.ValidationError{Violations: []common.FieldViolation{{Field: "body", Message: "Invalid request"}}}
}
