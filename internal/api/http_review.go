package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

// ReviewCreateInput defines the expected input for posting a review.
type ReviewCreateInput struct {
	ProductID   int64      `json:"product_id" validate:"required,gt=0"`
	Comment     *string    `json:"comment" validate:"omitempty,max=1000"`
	Grade       int        `json:"grade" validate:"required,gte=1,lte=5"`
	CommentDate *time.Time `json:"comment_date"`
}

func (h *HTTPHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewStore.ListReviews(r.Context())
	if err != nil {
		h.logger.Error("ListReviews store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondWithJSON(w, http.StatusOK, reviews)
}

func (h *HTTPHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	reviews, err := h.reviewStore.ListProductReviews(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("ListProductReviews store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondWithJSON(w, http.StatusOK, reviews)
}

func (h *HTTPHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Request is not authenticated")
		return
	}

	var input ReviewCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	commentDate := time.Now().UTC()
	if input.CommentDate != nil {
		commentDate = *input.CommentDate
	}

	review := &domain.Review{
		UserID:      ident.UserID,
		ProductID:   input.ProductID,
		Comment:     input.Comment,
		CommentDate: commentDate,
		Grade:       input.Grade,
	}

	createdReview, err := h.reviewStore.CreateReview(r.Context(), review)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
			return
		}
		h.logger.Error("CreateReview store operation failed", zap.Int64("product_id", input.ProductID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create review")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, createdReview)
}

func (h *HTTPHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "reviewId")
	reviewID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || reviewID <= 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid review ID format")
		return
	}

	err = h.reviewStore.DeleteReview(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondWithError(w, http.StatusNotFound, store.ErrReviewNotFound.Error())
			return
		}
		h.logger.Error("DeleteReview store operation failed", zap.Int64("review_id", reviewID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to delete review")
		return
	}

	h.respondWithJSON(w, http.StatusNoContent, nil)
}
