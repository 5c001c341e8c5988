package rest

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/services"
)

const (
	maxUploadSize  = 10 << 20
	maxFormMemory  = 2 << 20
	coverFormField = "file"
)

type createdRecipeResponse struct {
	Message string         `json:"message"`
	Recipe  *models.Recipe `json:"recipe"`
}

type recipeResponse struct {
	Message string         `json:"message"`
	Data    *models.Recipe `json:"data"`
}

func (h *handler) addRecipe(w http.ResponseWriter, r *http.Request) {
	in, upload, ok := h.readRecipe(w, r)
	if !ok {
		return
	}
	defer closeUpload(upload)

	rec, err := h.recipes.Create(r.Context(), callerFrom(r).ID, in, upload)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, createdRecipeResponse{Message: "New Recipe added", Recipe: rec})
}

func (h *handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipes.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recipes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "such recipe not found")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeResponse{Message: "ok", Data: rec})
}

func (h *handler) recipesByCategory(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipes.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) myRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipes.ListMine(r.Context(), callerFrom(r).ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "No recipes found for this user.")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) editRecipe(w http.ResponseWriter, r *http.Request) {
	in, upload, ok := h.readRecipe(w, r)
	if !ok {
		return
	}
	defer closeUpload(upload)

	rec, err := h.recipes.Update(r.Context(), callerFrom(r).ID, chi.URLParam(r, "id"), in, upload)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recipes.Delete(r.Context(), callerFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// readRecipe accepts either a multipart form with an optional "file" part
// or a JSON body without an image.
func (h *handler) readRecipe(w http.ResponseWriter, r *http.Request) (services.RecipeInput, *services.Upload, bool) {
	var in services.RecipeInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return in, nil, decodeJSON(w, r, &in)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "upload too large")
			return in, nil, false
		}
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return in, nil, false
	}

	in.Name = r.FormValue("name")
	in.Description = r.FormValue("description")
	in.Category = r.FormValue("category")
	in.Ingredients = formIngredients(r)

	file, header, err := r.FormFile(coverFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, true
		}
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return in, nil, false
	}
	upload := &services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return in, upload, true
}

// formIngredients reads repeated "ingredients" or "ingredients[]" fields.
// A single field holding a JSON array or a comma separated list is split.
func formIngredients(r *http.Request) []string {
	values := r.MultipartForm.Value["ingredients"]
	values = append(values, r.MultipartForm.Value["ingredients[]"]...)
	if len(values) != 1 {
		return values
	}

	single := strings.TrimSpace(values[0])
	if strings.HasPrefix(single, "[") {
		var items []string
		if err := json.Unmarshal([]byte(single), &items); err == nil {
			return items
		}
	}
	return strings.Split(single, ",")
}

func closeUpload(u *services.Upload) {
	if u == nil {
		return
	}
	if c, ok := u.Body.(io.Closer); ok {
		_ = c.Close()
	}
}
