package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

// CategoryInput defines the expected input for creating or updating a
// category.
type CategoryInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	category := &domain.Category{
		Name:     input.Name,
		ParentID: input.ParentID,
	}

	createdCategory, err := h.categoryStore.CreateCategory(r.Context(), category)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Parent category does not exist")
			return
		}
		h.logger.Error("CreateCategory store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, createdCategory)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePageParams(r)

	params := store.ListCategoriesParams{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	categories, totalCount, err := h.categoryStore.ListCategories(r.Context(), params)
	if err != nil {
		h.logger.Error("ListCategories store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}

	h.respondWithJSON(w, http.StatusOK, pageEnvelope{
		Items:    categories,
		Total:    totalCount,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error("GetCategoryByID store operation failed", zap.Int64("category_id", categoryID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}

	h.respondWithJSON(w, http.StatusOK, category)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var input CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	// A category cannot be its own parent.
	if input.ParentID != nil && *input.ParentID == categoryID {
		h.respondWithError(w, http.StatusBadRequest, "Category cannot be its own parent")
		return
	}

	category := &domain.Category{
		ID:       categoryID,
		Name:     input.Name,
		ParentID: input.ParentID,
	}

	updatedCategory, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error("UpdateCategory store operation failed", zap.Int64("category_id", categoryID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	h.respondWithJSON(w, http.StatusOK, updatedCategory)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	err = h.categoryStore.DeleteCategory(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		h.logger.Error("DeleteCategory store operation failed", zap.Int64("category_id", categoryID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	h.respondWithJSON(w, http.StatusNoContent, nil)
}
