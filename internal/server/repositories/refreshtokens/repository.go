// Package refreshtokens stores server-side refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/organlink/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens.
type Repository interface {
	// Create stores token for userID, expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes the token and returns common.ErrorNotFound when no row
	// was removed, so two concurrent rotations cannot both succeed.
	Delete(ctx context.Context, token string) error
}
