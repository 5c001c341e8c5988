package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recipehub/internal/dbx"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a handle, so services can
// run the same repository code on *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Recipes(db dbx.DBTX) recipes.Repository
}
