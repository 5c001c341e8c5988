package users

import (
	"context"

	"github.com/dmitrijs2005/recipehub/internal/server/models"
)

// Repository is the credential store: one record per identity, keyed by
// id and by unique email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id models.IdentityID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id models.IdentityID, hash string) error
}
