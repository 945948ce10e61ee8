// Package services contains the identity business logic: authentication,
// registration and session management. Services are stateless; each call
// binds repositories to the shared *sql.DB or to a transaction.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/server/audit"
	"github.com/dmitrijs2005/organlink/internal/server/metrics"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("organlink/services")

// PasswordHasher is the bounded hashing front of the password codec
// (see auth.Gate).
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
	DummyHash() string
}

// withTimeout bounds a persistence call. d <= 0 leaves ctx unchanged.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// classify maps an unexpected collaborator error onto ErrTransient (retryable)
// or ErrorInternal, keeping the cause in the chain for server-side logs.
func classify(op string, err error) error {
	if errors.Is(err, common.ErrTransient) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", common.ErrTransient, op, err)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}

// appendAudit stores rec through the sink bound to db and counts the attempt.
// A record that cannot be stored fails the request as transient.
func appendAudit(ctx context.Context, binder audit.Binder, db dbx.DBTX, rec *models.AuditRecord) error {
	if err := binder.For(db).Append(ctx, rec); err != nil {
		return fmt.Errorf("%w: audit %s: %w", common.ErrTransient, rec.Action, err)
	}
	metrics.RecordAuthAttempt(string(rec.Action), string(rec.Status))
	return nil
}

// endSpan records err on span, unless err is an expected client outcome.
func endSpan(span trace.Span, err error) {
	if err != nil && (errors.Is(err, common.ErrTransient) || errors.Is(err, common.ErrorInternal)) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
