// Package server wires the OrganLink identity service together: storage,
// migrations, the revocation denylist, the audit trail and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/organlink/internal/logging"
	"github.com/dmitrijs2005/organlink/internal/server/audit"
	"github.com/dmitrijs2005/organlink/internal/server/auth"
	"github.com/dmitrijs2005/organlink/internal/server/config"
	"github.com/dmitrijs2005/organlink/internal/server/httpapi"
	"github.com/dmitrijs2005/organlink/internal/server/metrics"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/organlink/internal/server/revocation"
	"github.com/dmitrijs2005/organlink/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *goredis.Client
	server *httpapi.HTTPServer
}

// NewApp connects to PostgreSQL and Redis, applies migrations and builds the
// audit trail, services and HTTP server. Resources opened before a failure
// are released.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, os.Stdout)
	app := &App{config: c, logger: logger}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, err
	}

	app.redis, err = revocation.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	var mirrors []audit.Sink
	if c.AuditArchiveEnabled {
		client, err := audit.NewS3Client(ctx, audit.S3Settings{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("audit archive init error: %w", err)
		}
		mirrors = append(mirrors, audit.NewMeteredSink("s3", audit.NewS3Sink(client, c.S3Bucket), logger))
		logger.Info(ctx, "Audit archive enabled", "bucket", c.S3Bucket)
	}
	trail := audit.NewTrail(rm, logger, mirrors...)

	codec, err := auth.NewBcryptCodec(c.BcryptCost)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("password codec: %w", err)
	}
	logger.Info(ctx, "Password hashing configured", "bcrypt_cost", codec.Cost(), "concurrency", c.HashConcurrency)
	gate := auth.NewGate(codec, c.HashConcurrency, c.HashTimeout)

	sessions := services.NewSessionService(db, rm, trail, revocation.NewRedisDenylist(app.redis), c)
	authn := services.NewAuthenticationService(db, rm, trail, gate, sessions, c)
	registrar := services.NewRegistrationService(db, rm, trail, gate, c)

	registry := prometheus.NewRegistry()
	metrics.RegisterMetrics(registry)

	gin.SetMode(gin.ReleaseMode)
	app.server = httpapi.NewHTTPServer(c.HTTPAddr, c.ShutdownTimeout, logger, authn, registrar, sessions, registry)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a termination signal arrives, then releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the database pool and the Redis client.
func (app *App) Close() {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(context.Background(), "close resources", "error", err)
	}
}
