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

// ProductInput defines the expected input for creating or updating a
// product. The seller is never taken from the payload; it is the caller.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"required,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url,max=500"`
	Stock       int32   `json:"stock" validate:"gte=0"`
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()
	page, pageSize := parsePageParams(r)

	params := store.ListProductsParams{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	if q := qParams.Get("search"); q != "" {
		params.Search = &q
	}
	if idStr := qParams.Get("category_id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > 0 {
			params.CategoryID = &id
		} else {
			h.respondWithError(w, http.StatusBadRequest, "Invalid category_id format")
			return
		}
	}
	if idStr := qParams.Get("seller_id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > 0 {
			params.SellerID = &id
		} else {
			h.respondWithError(w, http.StatusBadRequest, "Invalid seller_id format")
			return
		}
	}
	if priceStr := qParams.Get("min_price"); priceStr != "" {
		if price, err := strconv.ParseFloat(priceStr, 64); err == nil && price >= 0 {
			params.MinPrice = &price
		} else {
			h.respondWithError(w, http.StatusBadRequest, "Invalid min_price format")
			return
		}
	}
	if priceStr := qParams.Get("max_price"); priceStr != "" {
		if price, err := strconv.ParseFloat(priceStr, 64); err == nil && price >= 0 {
			params.MaxPrice = &price
		} else {
			h.respondWithError(w, http.StatusBadRequest, "Invalid max_price format")
			return
		}
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		h.respondWithError(w, http.StatusBadRequest, "min_price cannot exceed max_price")
		return
	}
	if stockStr := qParams.Get("in_stock"); stockStr != "" {
		if b, err := strconv.ParseBool(stockStr); err == nil {
			params.InStock = &b
		} else {
			h.respondWithError(w, http.StatusBadRequest, "Invalid in_stock value: must be true or false")
			return
		}
	}

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		h.logger.Error("ListProducts store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	h.respondWithJSON(w, http.StatusOK, pageEnvelope{
		Items:    products,
		Total:    totalCount,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("GetProductByID store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Request is not authenticated")
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		SellerID:    ident.UserID,
	}

	createdProduct, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Category does not exist")
			return
		}
		if errors.Is(err, store.ErrSellerNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrSellerNotFound.Error())
			return
		}
		h.logger.Error("CreateProduct store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, createdProduct)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Request is not authenticated")
		return
	}

	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	existing, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("UpdateProduct existence check failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Error checking product existence")
		return
	}

	// Ownership check is independent of the role gate: a seller may only
	// mutate their own listings.
	if existing.SellerID != ident.UserID {
		h.respondWithError(w, http.StatusForbidden, "You can only update your own products")
		return
	}

	productToUpdate := &domain.Product{
		ID:          productID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
	}

	updatedProduct, err := h.productStore.UpdateProduct(r.Context(), productToUpdate)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Category does not exist")
			return
		}
		h.logger.Error("UpdateProduct store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	h.respondWithJSON(w, http.StatusOK, updatedProduct)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Request is not authenticated")
		return
	}

	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	existing, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("DeleteProduct existence check failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Error checking product existence")
		return
	}

	if existing.SellerID != ident.UserID {
		h.respondWithError(w, http.StatusForbidden, "You can only delete your own products")
		return
	}

	err = h.productStore.DeleteProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("DeleteProduct store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	h.respondWithJSON(w, http.StatusNoContent, nil)
}
