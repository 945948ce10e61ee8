package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/server/audit"
	"github.com/dmitrijs2005/organlink/internal/server/auth"
	"github.com/dmitrijs2005/organlink/internal/server/config"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/organlink/internal/server/validation"
)

// RegistrationService creates identities. Duplicate emails are rejected
// with common.ErrConflict whether they are caught by the early lookup or
// by the unique constraint at insert.
type RegistrationService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	audit              audit.Binder
	hasher             PasswordHasher
	persistenceTimeout time.Duration
	auditRejected      bool
}

// NewRegistrationService wires registration to its storage, audit trail and
// password hasher.
func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, binder audit.Binder, hasher PasswordHasher, cfg *config.Config) *RegistrationService {
	return &RegistrationService{
		db:                 db,
		repomanager:        m,
		audit:              binder,
		hasher:             hasher,
		persistenceTimeout: cfg.PersistenceTimeout,
		auditRejected:      cfg.AuditRejectedRegistrations,
	}
}

// Register validates in, checks the email is free and the password meets
// the policy, then creates the user and its REGISTER audit record in one
// transaction.
func (s *RegistrationService) Register(ctx context.Context, in models.RegistrationInput, client models.ClientInfo) (identity *models.SanitizedIdentity, err error) {
	if err := validation.ValidateRegistration(&in); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "auth.register")
	defer func() { endSpan(span, err) }()

	lookupCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
	_, err = s.repomanager.Users(s.db).FindByEmail(lookupCtx, in.Email)
	cancel()
	switch {
	case err == nil:
		return nil, s.rejected(ctx, client, models.AuditEmailAlreadyExists, common.ErrConflict)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, classify("find user", err)
	}

	if res := auth.CheckPasswordPolicy(in.Password); !res.Valid {
		return nil, s.rejected(ctx, client, res.Reason, &common.PolicyError{Reason: res.Reason})
	}

	born, err := time.Parse(validation.DateLayout, in.DateOfBirth)
	if err != nil {
		// Already checked by validation.
		return nil, fmt.Errorf("%w: parse date of birth: %w", common.ErrorInternal, err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			// Validation counts characters, bcrypt counts bytes.
			return nil, &common.ValidationError{Violations: []common.FieldViolation{
				{Field: "password", Message: "Password must be at most 72 bytes"},
			}}
		}
		return nil, classify("hash password", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DateOfBirth:  born,
		PhoneNumber:  in.PhoneNumber,
		UserType:     models.UserType(in.UserType),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		insCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
		defer cancel()

		created, err := s.repomanager.Users(tx).Create(insCtx, user)
		if err != nil {
			return err
		}
		user = created

		rec := models.NewAuditRecord(models.AuditActionRegister, client).Succeeded(created.ID)
		return appendAudit(ctx, s.audit, tx, rec)
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, s.rejected(ctx, client, models.AuditEmailAlreadyExists, common.ErrConflict)
		}
		return nil, classify("create user", err)
	}

	return user.Sanitize(), nil
}

// rejected returns cause, first recording a FAILURE when rejected
// registrations are audited.
func (s *RegistrationService) rejected(ctx context.Context, client models.ClientInfo, reason string, cause error) error {
	if !s.auditRejected {
		return cause
	}
	rec := models.NewAuditRecord(models.AuditActionRegister, client).Failed(reason)
	if err := appendAudit(ctx, s.audit, s.db, rec); err != nil {
		return err
	}
	return cause
}
