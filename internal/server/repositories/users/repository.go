// Package users stores identities.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/organlink/internal/server/models"
)

// Repository persists identities. Lookups of absent rows return
// common.ErrorNotFound; Create maps an email unique violation to
// common.ErrConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
