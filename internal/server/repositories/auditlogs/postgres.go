package auditlogs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts rec. Rows are never updated.
func (r *PostgresRepository) Append(ctx context.Context, rec *models.AuditRecord) error {
	query :=
		`INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, status, error_message, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, string(rec.Action), rec.EntityType, rec.EntityID,
		string(rec.Status), rec.ErrorMessage, rec.SourceAddress, rec.ClientAgent, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByUser returns the newest records about userID, at most limit.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuditRecord, error) {
	query :=
		`SELECT id, user_id, action, entity_type, entity_id, status, error_message, ip_address, user_agent, created_at
		 FROM audit_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.AuditRecord
	for rows.Next() {
		var (
			rec                     models.AuditRecord
			uid, entityID, errorMsg sql.NullString
			action, status          string
		)
		if err := rows.Scan(&rec.ID, &uid, &action, &rec.EntityType, &entityID, &status,
			&errorMsg, &rec.SourceAddress, &rec.ClientAgent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.Action = models.AuditAction(action)
		rec.Status = models.AuditStatus(status)
		rec.UserID = nullable(uid)
		rec.EntityID = nullable(entityID)
		rec.ErrorMessage = nullable(errorMsg)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
