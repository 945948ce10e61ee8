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
	"github.com/dmitrijs2005/organlink/internal/server/revocation"
)

// RefreshTokenLength is the length of an issued refresh token.
const RefreshTokenLength = 64

// TokenPair bundles a short-lived access token and a long-lived refresh
// token. ExpiresAt is the access token expiry.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SessionService issues, rotates and revokes sessions.
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	audit                        audit.Binder
	denylist                     revocation.Denylist
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	persistenceTimeout           time.Duration
	now                          func() time.Time
}

// NewSessionService creates the session service. Access tokens are signed
// with cfg.SecretKey.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, binder audit.Binder, denylist revocation.Denylist, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		audit:                        binder,
		denylist:                     denylist,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		persistenceTimeout:           cfg.PersistenceTimeout,
		now:                          time.Now,
	}
}

// issue mints a token pair for userID, storing the refresh token through db.
func (s *SessionService) issue(ctx context.Context, db dbx.DBTX, userID string) (*TokenPair, error) {
	access, claims, err := auth.IssueAccessToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %w", common.ErrorInternal, err)
	}

	refresh, err := auth.GenerateToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("%w: generate refresh token: %w", common.ErrorInternal, err)
	}

	ctx, cancel := withTimeout(ctx, s.persistenceTimeout)
	defer cancel()

	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, classify("store refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Refresh rotates refreshToken: the old token is deleted and a new pair is
// issued in one transaction, so a token can be redeemed once. Unknown or
// already redeemed tokens yield common.ErrInvalidToken, expired ones
// common.ErrRefreshTokenExpired.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string, client models.ClientInfo) (pair *TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "session.refresh")
	defer func() { endSpan(span, err) }()

	rec := models.NewAuditRecord(models.AuditActionRefresh, client)

	findCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
	token, err := s.repomanager.RefreshTokens(s.db).Find(findCtx, refreshToken)
	cancel()
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.reject(ctx, rec.Failed(models.AuditInvalidRefreshToken), common.ErrInvalidToken)
		}
		return nil, s.reject(ctx, rec.Failed(models.AuditLookupFailed), classify("find refresh token", err))
	}
	rec.ForUser(token.UserID)

	if token.Expired(s.now()) {
		delCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
		_ = s.repomanager.RefreshTokens(s.db).Delete(delCtx, refreshToken)
		cancel()
		return nil, s.reject(ctx, rec.Failed(models.AuditRefreshTokenExpired), common.ErrRefreshTokenExpired)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		delCtx, cancel := withTimeout(ctx, s.persistenceTimeout)
		defer cancel()
		if err := s.repomanager.RefreshTokens(tx).Delete(delCtx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return classify("delete refresh token", err)
		}

		var err error
		if pair, err = s.issue(ctx, tx, token.UserID); err != nil {
			return err
		}
		return appendAudit(ctx, s.audit, tx, rec.Succeeded(token.UserID))
	})
	if err != nil {
		// The SUCCESS record may have reached a mirror before the rollback,
		// so the failure gets a record of its own.
		rec = models.NewAuditRecord(models.AuditActionRefresh, client).ForUser(token.UserID)
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, s.reject(ctx, rec.Failed(models.AuditInvalidRefreshToken), err)
		}
		return nil, s.reject(ctx, rec.Failed(models.AuditSessionIssueFailed), classify("rotate refresh token", err))
	}

	return pair, nil
}

// Authenticate parses an access token and checks it against the denylist.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := auth.ParseAccessToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, classify("check revocation", err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the access token described by claims until its expiry and
// deletes refreshToken when it belongs to the same user. Repeating a logout
// is not an error.
func (s *SessionService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string, client models.ClientInfo) (err error) {
	ctx, span := tracer.Start(ctx, "session.logout")
	defer func() { endSpan(span, err) }()

	userID := claims.UserID()
	rec := models.NewAuditRecord(models.AuditActionLogout, client).ForUser(userID)

	if refreshToken != "" {
		if err := s.dropRefreshToken(ctx, userID, refreshToken); err != nil {
			return s.reject(ctx, rec.Failed(models.AuditSessionRevokeFailed), err)
		}
	}

	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return s.reject(ctx, rec.Failed(models.AuditSessionRevokeFailed), classify("revoke access token", err))
	}

	return appendAudit(ctx, s.audit, s.db, rec.Succeeded(userID))
}

func (s *SessionService) dropRefreshToken(ctx context.Context, userID, refreshToken string) error {
	ctx, cancel := withTimeout(ctx, s.persistenceTimeout)
	defer cancel()

	repo := s.repomanager.RefreshTokens(s.db)
	token, err := repo.Find(ctx, refreshToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return classify("find refresh token", err)
	}
	if token.UserID != userID {
		return nil
	}

	if err := repo.Delete(ctx, refreshToken); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return classify("delete refresh token", err)
	}
	return nil
}

// Me returns the identity behind an authenticated request.
func (s *SessionService) Me(ctx context.Context, userID string) (*models.SanitizedIdentity, error) {
	ctx, cancel := withTimeout(ctx, s.persistenceTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, classify("find user", err)
	}
	return user.Sanitize(), nil
}

// MaxActivity caps the records Activity returns.
const MaxActivity = 100

// Activity returns the newest audit records about userID, at most limit.
// Non-positive or oversized limits are clamped to MaxActivity.
func (s *SessionService) Activity(ctx context.Context, userID string, limit int) ([]*models.AuditRecord, error) {
	if limit <= 0 || limit > MaxActivity {
		limit = MaxActivity
	}

	ctx, cancel := withTimeout(ctx, s.persistenceTimeout)
	defer cancel()

	records, err := s.repomanager.AuditLogs(s.db).ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, classify("list audit records", err)
	}
	return records, nil
}

// reject audits a failed session operation and returns cause, or the audit
// error when the record could not be stored.
func (s *SessionService) reject(ctx context.Context, rec *models.AuditRecord, cause error) error {
	if err := appendAudit(ctx, s.audit, s.db, rec); err != nil {
		return err
	}
	return cause
}
