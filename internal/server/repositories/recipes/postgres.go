package recipes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/dbx"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
)

const selectJoined = `
	SELECT r.id, r.name, r.description, r.ingredients, r.category, r.cover_image,
	       r.author_id, u.name, r.created_at, r.updated_at
	FROM recipes r
	JOIN users u ON u.id = r.author_id
	`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func encodeIngredients(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(b), nil
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	var (
		item models.Recipe
		raw  []byte
	)
	if err := s.Scan(
		&item.ID, &item.Name, &item.Description, &raw, &item.Category, &item.CoverImage,
		&item.AuthorID, &item.AuthorName, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Ingredients = []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &item.Ingredients); err != nil {
			return nil, fmt.Errorf("decode ingredients: %w", err)
		}
	}
	return &item, nil
}

// mapLookupErr turns driver errors on id lookups into sentinels. A
// malformed id can never match a row, so it reads as not found.
func mapLookupErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

// Create inserts recipe and fills the generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	ingredients, err := encodeIngredients(recipe.Ingredients)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO recipes (name, description, ingredients, category, cover_image, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		recipe.Name, recipe.Description, ingredients, recipe.Category, recipe.CoverImage, string(recipe.AuthorID),
	).Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recipe, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	query := selectJoined + `WHERE r.id = $1`
	item, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return item, nil
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Recipe, error) {
	query := selectJoined + `WHERE r.id = $1 FOR UPDATE OF r`
	item, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return item, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Recipe, error) {
	return r.list(ctx, selectJoined+`ORDER BY r.created_at DESC`)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, author models.IdentityID) ([]*models.Recipe, error) {
	return r.list(ctx, selectJoined+`WHERE r.author_id = $1 ORDER BY r.created_at DESC`, string(author))
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, category string) ([]*models.Recipe, error) {
	return r.list(ctx, selectJoined+`WHERE r.category = $1 ORDER BY r.created_at DESC`, category)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if dbx.IsInvalidInput(err) {
			return []*models.Recipe{}, nil
		}
		return nil, fmt.Errorf("failed to select recipes: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Recipe, 0)
	for rows.Next() {
		item, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update overwrites the mutable fields of recipe. The author never changes.
func (r *PostgresRepository) Update(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	ingredients, err := encodeIngredients(recipe.Ingredients)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE recipes
		SET name = $2, description = $3, ingredients = $4, category = $5, cover_image = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		recipe.ID, recipe.Name, recipe.Description, ingredients, recipe.Category, recipe.CoverImage,
	).Scan(&recipe.UpdatedAt)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return recipe, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return mapLookupErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
