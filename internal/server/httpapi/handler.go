package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/gin-gonic/gin"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// clientInfo reads the audit origin of the request. Missing headers are
// recorded as "unknown".
func clientInfo(c *gin.Context) models.ClientInfo {
	info := models.ClientInfo{
		SourceAddress: c.GetHeader(common.ForwardedForHeaderName),
		ClientAgent:   c.Request.UserAgent(),
	}
	if info.SourceAddress == "" {
		info.SourceAddress = common.UnknownClientValue
	}
	if info.ClientAgent == "" {
		info.ClientAgent = common.UnknownClientValue
	}
	return info
}

func (s *HTTPServer) login(c *gin.Context) {
	var cred models.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		s.writeError(c, badBody())
		return
	}

	res, err := s.authn.Login(c.Request.Context(), cred, clientInfo(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Logged in", "user_id", res.User.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": res.User, "tokens": res.Tokens})
}

func (s *HTTPServer) register(c *gin.Context) {
	var in models.RegistrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.writeError(c, badBody())
		return
	}

	user, err := s.registrar.Register(c.Request.Context(), in, clientInfo(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "user": user})
}

func (s *HTTPServer) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		s.writeError(c, &common.ValidationError{Violations: []common.FieldViolation{{Field: "refreshToken", Message: "is required"}}})
		return
	}

	pair, err := s.sessions.Refresh(c.Request.Context(), req.RefreshToken, clientInfo(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// logout revokes the bearer token. The refresh token body is optional.
func (s *HTTPServer) logout(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.writeError(c, badBody())
			return
		}
	}

	if err := s.sessions.Logout(c.Request.Context(), claimsFrom(c), req.RefreshToken, clientInfo(c)); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) me(c *gin.Context) {
	user, err := s.sessions.Me(c.Request.Context(), claimsFrom(c).UserID())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// activity lists the caller's recent audit records; ?limit=N narrows it.
func (s *HTTPServer) activity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(c, &common.ValidationError{Violations: []common.FieldViolation{
				{Field: "limit", Message: "Limit must be a positive integer"},
			}})
			return
		}
		limit = n
	}

	records, err := s.sessions.Activity(c.Request.Context(), claimsFrom(c).UserID(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if records == nil {
		records = []*models.AuditRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"activity": records})
}
