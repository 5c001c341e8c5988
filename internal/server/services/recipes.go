package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/dbx"
	"github.com/dmitrijs2005/recipehub/internal/logging"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/blob"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/repomanager"
)

// Upload is a cover image received with a recipe.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// RecipeService publishes recipes. Only the author may edit or delete one.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	log         logging.Logger
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, log logging.Logger) *RecipeService {
	if log == nil {
		log = logging.Nop{}
	}
	return &RecipeService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		log:         log.With("module", "recipes"),
	}
}

// Create stores the cover image, then the recipe. The image is removed
// again if the recipe cannot be stored.
func (s *RecipeService) Create(ctx context.Context, author models.IdentityID, in RecipeInput, upload *Upload) (*models.Recipe, error) {
	if author.IsZero() {
		return nil, common.ErrorUnauthorized
	}

	in.normalize()
	err := validateInput(&in)
	if upload == nil {
		err = mergeValidation(err, common.FieldError{Field: "file", Message: "Cover image is required"})
	}
	if err != nil {
		return nil, err
	}

	ref, err := s.blobs.Put(ctx, upload.Filename, upload.ContentType, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("error storing cover image: %w", err)
	}

	rec, err := s.repomanager.Recipes(s.db).Create(ctx, &models.Recipe{
		Name:        in.Name,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Category:    in.Category,
		CoverImage:  ref,
		AuthorID:    author,
	})
	if err != nil {
		s.removeBlob(ctx, ref)
		return nil, fmt.Errorf("error creating recipe: %w", err)
	}
	return rec, nil
}

func (s *RecipeService) List(ctx context.Context) ([]*models.Recipe, error) {
	return s.repomanager.Recipes(s.db).List(ctx)
}

func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	return s.repomanager.Recipes(s.db).GetByID(ctx, id)
}

// ListMine returns the caller's recipes, or common.ErrorNotFound when there
// are none.
func (s *RecipeService) ListMine(ctx context.Context, caller models.IdentityID) ([]*models.Recipe, error) {
	items, err := s.repomanager.Recipes(s.db).ListByAuthor(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, common.ErrorNotFound
	}
	return items, nil
}

func (s *RecipeService) ListByCategory(ctx context.Context, category string) ([]*models.Recipe, error) {
	return s.repomanager.Recipes(s.db).ListByCategory(ctx, category)
}

// Update replaces the recipe fields and, when upload is set, the cover
// image. The row stays locked from the ownership check until the write
// commits. Non-authors get common.ErrForbidden.
func (s *RecipeService) Update(ctx context.Context, caller models.IdentityID, id string, in RecipeInput, upload *Upload) (*models.Recipe, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	var (
		out    *models.Recipe
		newRef string
		oldRef string
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		cur, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if auth.Authorize(caller, cur.AuthorID) != auth.Allow {
			return common.ErrForbidden
		}

		next := *cur
		next.Name = in.Name
		next.Description = in.Description
		next.Ingredients = in.Ingredients
		next.Category = in.Category

		if upload != nil {
			ref, err := s.blobs.Put(ctx, upload.Filename, upload.ContentType, upload.Body)
			if err != nil {
				return fmt.Errorf("error storing cover image: %w", err)
			}
			newRef, oldRef = ref, cur.CoverImage
			next.CoverImage = ref
		}

		out, err = repo.Update(ctx, &next)
		return err
	})
	if err != nil {
		if newRef != "" {
			s.removeBlob(ctx, newRef)
		}
		return nil, err
	}

	if oldRef != "" {
		s.removeBlob(ctx, oldRef)
	}
	return out, nil
}

// Delete removes the recipe and then its cover image. Non-authors get
// common.ErrForbidden.
func (s *RecipeService) Delete(ctx context.Context, caller models.IdentityID, id string) (*models.Recipe, error) {
	var deleted *models.Recipe
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		cur, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if auth.Authorize(caller, cur.AuthorID) != auth.Allow {
			return common.ErrForbidden
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.removeBlob(ctx, deleted.CoverImage)
	return deleted, nil
}

// removeBlob logs and swallows failures; an orphaned file is harmless.
func (s *RecipeService) removeBlob(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.log.Warn(ctx, "failed to remove cover image", "ref", ref, "error", err)
	}
}
