package audit

import (
	"context"

	"github.com/dmitrijs2005/organlink/internal/server/models"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/auditlogs"
)

// RepositorySink appends to the audit_logs table.
type RepositorySink struct {
	repo auditlogs.Repository
}

// NewRepositorySink returns a sink that inserts into audit_logs through repo.
func NewRepositorySink(repo auditlogs.Repository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

// Append inserts rec as a new audit_logs row.
func (s *RepositorySink) Append(ctx context.Context, rec *models.AuditRecord) error {
	return s.repo.Append(ctx, rec)
}
