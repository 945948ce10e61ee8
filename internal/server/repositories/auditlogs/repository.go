// Package auditlogs stores the audit trail. It is append-only: the package
// offers no way to change or remove a stored record.
package auditlogs

import (
	"context"

	"github.com/dmitrijs2005/organlink/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, record *models.AuditRecord) error
	// ListByUser returns the newest records of userID first, at most limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuditRecord, error)
}
