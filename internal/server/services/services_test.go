package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/server/audit"
	"github.com/dmitrijs2005/organlink/internal/server/auth"
	"github.com/dmitrijs2005/organlink/internal/server/config"
	"github.com/dmitrijs2005/organlink/internal/server/models"
	auditlogsrepo "github.com/dmitrijs2005/organlink/internal/server/repositories/auditlogs"
	refreshtokensrepo "github.com/dmitrijs2005/organlink/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/organlink/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB1(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		PersistenceTimeout:           time.Second,
	}
}

func newGate(t *testing.T) *auth.Gate {
	t.Helper()
	codec, err := auth.NewBcryptCodec(bcrypt.MinCost)
	require.NoError(t, err)
	return auth.NewGate(codec, 4, 5*time.Second)
}

func mustHash(t *testing.T, p string) string {
	t.Helper()
	h, err := newGate(t).Hash(context.Background(), p)
	require.NoError(t, err)
	return h
}

var testClient = models.ClientInfo{SourceAddress: "203.0.113.7", ClientAgent: "test-agent"}

type fakeUsersRepo1 struct {
	mu      sync.Mutex
	byEmail map[string]*models.User

	findErr   error
	createErr error
	updateErr error

	lastLogin map[string]time.Time
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo1 {
	f := &fakeUsersRepo1{byEmail: map[string]*models.User{}, lastLogin: map[string]time.Time{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsersRepo1) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrConflict
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.byEmail[u.Email] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo1) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo1) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo1) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastLogin[id] = at
	return nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken

	findErr   error
	createErr error
	deleteErr error
}

func newFakeRefreshRepo(tokens ...*models.RefreshToken) *fakeRefreshRepo {
	f := &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
	for _, t := range tokens {
		f.tokens[t.Token] = t
	}
	return f
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID string, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) has(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[token]
	return ok
}

type fakeAuditLogsRepo struct {
	records  []*models.AuditRecord
	listErr  error
	gotLimit int
}

func (f *fakeAuditLogsRepo) Append(_ context.Context, rec *models.AuditRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAuditLogsRepo) ListByUser(_ context.Context, userID string, limit int) ([]*models.AuditRecord, error) {
	f.gotLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.AuditRecord
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r := f.records[i]; r.UserID != nil && *r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRepoManager1 struct {
	u *fakeUsersRepo1
	r *fakeRefreshRepo
	a *fakeAuditLogsRepo
}

func (m *fakeRepoManager1) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager1) Users(dbx.DBTX) usersrepo.Repository { return m.u }

func (m *fakeRepoManager1) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }

func (m *fakeRepoManager1) AuditLogs(dbx.DBTX) auditlogsrepo.Repository { return m.a }

// countingBinder records every appended audit record and the handle each
// sink was bound to.
type countingBinder struct {
	mu      sync.Mutex
	records []*models.AuditRecord
	bound   []dbx.DBTX
	err     error
}

type countingSink struct {
	b *countingBinder
}

func (b *countingBinder) For(db dbx.DBTX) audit.Sink {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = append(b.bound, db)
	return countingSink{b: b}
}

func (s countingSink) Append(_ context.Context, rec *models.AuditRecord) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.b.err != nil {
		return s.b.err
	}
	cp := *rec
	s.b.records = append(s.b.records, &cp)
	return nil
}

func (b *countingBinder) snapshot() []*models.AuditRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*models.AuditRecord(nil), b.records...)
}

// spyHasher wraps a real gate and remembers which hashes were verified
// against. Errors, when set, replace the gate's result.
type spyHasher struct {
	next      PasswordHasher
	mu        sync.Mutex
	verified  []string
	hashErr   error
	verifyErr error
}

func (s *spyHasher) Hash(ctx context.Context, p string) (string, error) {
	if s.hashErr != nil {
		return "", s.hashErr
	}
	return s.next.Hash(ctx, p)
}

func (s *spyHasher) Verify(ctx context.Context, p, h string) (bool, error) {
	s.mu.Lock()
	s.verified = append(s.verified, h)
	s.mu.Unlock()
	if s.verifyErr != nil {
		return false, s.verifyErr
	}
	return s.next.Verify(ctx, p, h)
}

func (s *spyHasher) DummyHash() string { return s.next.DummyHash() }

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: map[string]time.Time{}}
}

func (d *fakeDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.revoked[jti] = until
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[jti]
	return ok, nil
}

func strPtr(s string) *string { return &s }

func validInput(email string) models.RegistrationInput {
	return models.RegistrationInput{
		Email:           email,
		Password:        "Str0ng!Pass",
		ConfirmPassword: "Str0ng!Pass",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		DateOfBirth:     "1990-05-17",
		PhoneNumber:     "+14155550100",
		UserType:        string(models.UserTypeDonor),
	}
}
