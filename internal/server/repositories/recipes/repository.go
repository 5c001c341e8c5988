// Package recipes provides the PostgreSQL-backed recipe document store.
package recipes

import (
	"context"

	"github.com/dmitrijs2005/recipehub/internal/server/models"
)

// Repository stores recipes. Reads join the author's display name; lists
// are ordered newest first.
type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Recipe, error)
	List(ctx context.Context) ([]*models.Recipe, error)
	ListByAuthor(ctx context.Context, author models.IdentityID) ([]*models.Recipe, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	Delete(ctx context.Context, id string) error
}
