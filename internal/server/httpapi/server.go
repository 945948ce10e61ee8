// Package httpapi exposes the identity services over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/organlink/internal/logging"
	"github.com/dmitrijs2005/organlink/internal/server/auth"
	"github.com/dmitrijs2005/organlink/internal/server/metrics"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/dmitrijs2005/organlink/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Authenticator interface {
	Login(ctx context.Context, cred models.Credential, client models.ClientInfo) (*services.LoginResult, error)
}

type Registrar interface {
	Register(ctx context.Context, in models.RegistrationInput, client models.ClientInfo) (*models.SanitizedIdentity, error)
}

type SessionManager interface {
	Refresh(ctx context.Context, refreshToken string, client models.ClientInfo) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims, refreshToken string, client models.ClientInfo) error
	Me(ctx context.Context, userID string) (*models.SanitizedIdentity, error)
	Activity(ctx context.Context, userID string, limit int) ([]*models.AuditRecord, error)
}

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	logger          logging.Logger
	authn           Authenticator
	registrar       Registrar
	sessions        SessionManager
	registry        *prometheus.Registry
}

// NewHTTPServer creates the API server. A nil registry disables /metrics.
func NewHTTPServer(address string, shutdownTimeout time.Duration, l logging.Logger, authn Authenticator, reg Registrar, sessions SessionManager, registry *prometheus.Registry) *HTTPServer {
	return &HTTPServer{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		logger:          l.With("module", "http_server"),
		authn:           authn,
		registrar:       reg,
		sessions:        sessions,
		registry:        registry,
	}
}

// Router builds the gin engine with every route and middleware installed.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))
	}

	api := r.Group("/api/auth")
	api.POST("/login", s.login)
	api.POST("/register", s.register)
	api.POST("/refresh", s.refresh)

	protected := api.Group("")
	protected.Use(s.requireAccessToken())
	protected.POST("/logout", s.logout)
	protected.GET("/me", s.me)
	protected.GET("/activity", s.activity)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
