package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/server/audit"
	"github.com/dmitrijs2005/organlink/internal/server/config"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/organlink/internal/server/validation"
	"go.opentelemetry.io/otel/attribute"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	User   *models.SanitizedIdentity
	Tokens *TokenPair
}

// AuthenticationService verifies credentials. Every attempt that passes
// request validation produces exactly one audit record, and both ways a
// login can be denied return the same common.ErrInvalidCredentials.
type AuthenticationService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	audit              audit.Binder
	hasher             PasswordHasher
	sessions           *SessionService
	persistenceTimeout time.Duration
	now                func() time.Time
}

// NewAuthenticationService wires the login flow to its storage, audit trail,
// password hasher and session issuer.
func NewAuthenticationService(db *sql.DB, m repomanager.RepositoryManager, binder audit.Binder, hasher PasswordHasher, sessions *SessionService, cfg *config.Config) *AuthenticationService {
	return &AuthenticationService{
		db:                 db,
		repomanager:        m,
		audit:              binder,
		hasher:             hasher,
		sessions:           sessions,
		persistenceTimeout: cfg.PersistenceTimeout,
		now:                time.Now,
	}
}

// Login authenticates cred. An unknown email is verified against the dummy
// hash so it costs the same as a wrong password.
func (s *AuthenticationService) Login(ctx context.Context, cred models.Credential, client models.ClientInfo) (res *LoginResult, err error) {
	if err := validation.ValidateLogin(&cred); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "auth.login")
	defer func() { endSpan(span, err) }()

	rec := models.NewAuditRecord(models.AuditActionLogin, client)

	lookupCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
	user, err := s.repomanager.Users(s.db).FindByEmail(lookupCtx, cred.Email)
	cancel()

	switch {
	case errors.Is(err, common.ErrorNotFound):
		// Result ignored: only the cost matters.
		if _, verr := s.hasher.Verify(ctx, cred.Password, s.hasher.DummyHash()); verr != nil {
			return nil, s.deny(ctx, rec.Failed(models.AuditVerificationFailed), verr)
		}
		return nil, s.deny(ctx, rec.Failed(models.AuditUserNotFound), common.ErrInvalidCredentials)
	case err != nil:
		return nil, s.deny(ctx, rec.Failed(models.AuditLookupFailed), classify("find user", err))
	}

	rec.ForUser(user.ID)
	span.SetAttributes(attribute.String("user.id", user.ID))

	ok, err := s.hasher.Verify(ctx, cred.Password, user.PasswordHash)
	if err != nil {
		return nil, s.deny(ctx, rec.Failed(models.AuditVerificationFailed), err)
	}
	if !ok {
		return nil, s.deny(ctx, rec.Failed(models.AuditInvalidPassword), common.ErrInvalidCredentials)
	}

	// The last-login stamp, the refresh token and the SUCCESS record commit
	// together or not at all.
	var tokens *TokenPair
	reason := models.AuditLoginNotRecorded
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		updCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
		err := s.repomanager.Users(tx).UpdateLastLogin(updCtx, user.ID, s.now().UTC())
		cancel()
		if err != nil {
			reason = models.AuditLastLoginNotRecorded
			return classify("update last login", err)
		}

		if tokens, err = s.sessions.issue(ctx, tx, user.ID); err != nil {
			reason = models.AuditSessionIssueFailed
			return err
		}

		reason = models.AuditLoginNotRecorded
		return appendAudit(ctx, s.audit, tx, rec.Succeeded(user.ID))
	})
	if err != nil {
		// The SUCCESS record may have reached a mirror before the rollback,
		// so the failure gets a record of its own.
		failed := models.NewAuditRecord(models.AuditActionLogin, client).ForUser(user.ID).Failed(reason)
		return nil, s.deny(ctx, failed, classify("record login", err))
	}

	return &LoginResult{User: user.Sanitize(), Tokens: tokens}, nil
}

// deny stores the audit record of a failed attempt and returns cause. When
// the record cannot be stored the audit failure is returned instead.
func (s *AuthenticationService) deny(ctx context.Context, rec *models.AuditRecord, cause error) error {
	if err := appendAudit(ctx, s.audit, s.db, rec); err != nil {
		return err
	}
	return cause
}
