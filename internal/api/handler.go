package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	userStore     store.UserStorer
	reviewStore   store.ReviewStorer
	orderStore    store.OrderStorer
	tokens        *auth.TokenService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	cs store.CategoryStorer,
	ps store.ProductStorer,
	us store.UserStorer,
	rs store.ReviewStorer,
	os store.OrderStorer,
	tokens *auth.TokenService,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		categoryStore: cs,
		productStore:  ps,
		userStore:     us,
		reviewStore:   rs,
		orderStore:    os,
		tokens:        tokens,
		validate:      validator.New(),
		logger:        logger,
	}
}

// RegisterRoutes sets up the HTTP routes for the service. Reads are public;
// every mutating route passes through the authenticator and a role gate.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{categoryId}", h.GetCategoryByID)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)
			r.Use(RequireRoles(domain.RoleAdmin))
			r.Post("/", h.CreateCategory)
			r.Put("/{categoryId}", h.UpdateCategory)
			r.Delete("/{categoryId}", h.DeleteCategory)
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{productId}", h.GetProductByID)
		r.Get("/{productId}/reviews", h.ListProductReviews)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)
			r.Use(RequireRoles(domain.RoleSeller))
			r.Post("/", h.CreateProduct)
			r.Put("/{productId}", h.UpdateProduct)
			r.Delete("/{productId}", h.DeleteProduct)
		})
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/", h.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)
			r.Use(RequireRoles(domain.RoleBuyer))
			r.Post("/", h.CreateReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)
			r.Use(RequireRoles(domain.RoleAdmin))
			r.Delete("/{reviewId}", h.DeleteReview)
		})
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)
			r.Use(RequireRoles(domain.RoleBuyer))
			r.Post("/", h.CreateOrder)
		})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", h.RegisterUser)
		r.Post("/token", h.Login)
		r.Post("/refresh-token", h.RefreshToken)
	})
}
