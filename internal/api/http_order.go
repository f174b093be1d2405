package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

// OrderCreateInput defines the expected input for placing an order.
type OrderCreateInput struct {
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()
	page, pageSize := parsePageParams(r)

	params := store.ListOrdersParams{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	if statusStr := qParams.Get("status"); statusStr != "" {
		status := domain.OrderStatus(statusStr)
		if !status.Valid() {
			h.respondWithError(w, http.StatusBadRequest, "Invalid status value. Allowed: in process, paid, canceled")
			return
		}
		params.Status = &status
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

	orders, totalCount, err := h.orderStore.ListOrders(r.Context(), params)
	if err != nil {
		h.logger.Error("ListOrders store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	h.respondWithJSON(w, http.StatusOK, pageEnvelope{
		Items:    orders,
		Total:    totalCount,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Request is not authenticated")
		return
	}

	var input OrderCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	createdOrder, err := h.orderStore.CreateOrder(r.Context(), ident.UserID, input.ProductIDs)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		if errors.Is(err, store.ErrEmptyOrder) {
			h.respondWithError(w, http.StatusBadRequest, store.ErrEmptyOrder.Error())
			return
		}
		h.logger.Error("CreateOrder store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, createdOrder)
}
