package store

import (
	"context"

	"marketplace-service/internal/domain"
)

// ListCategoriesParams holds parameters for listing categories.
type ListCategoriesParams struct {
	Limit  int
	Offset int
}

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context, params ListCategoriesParams) ([]domain.Category, int, error) // Returns categories and total count for pagination
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// ListProductsParams holds parameters for listing products. All filters are
// optional and combine with AND; a nil filter imposes no constraint. Search
// is matched against the product's weighted text index and switches the
// result ordering to relevance.
type ListProductsParams struct {
	Limit      int
	Offset     int
	Search     *string
	CategoryID *int64
	MinPrice   *float64
	MaxPrice   *float64
	InStock    *bool // true -> stock > 0, false -> stock = 0
	SellerID   *int64
}

// ProductStorer defines the database operations for products.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) // Returns products and total count
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// UserStorer defines the database operations for user accounts.
type UserStorer interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ReviewStorer defines the database operations for reviews. CreateReview
// also recomputes the target product's rating; both happen in one
// transaction.
type ReviewStorer interface {
	CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ListReviews(ctx context.Context) ([]domain.Review, error)
	ListProductReviews(ctx context.Context, productID int64) ([]domain.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

// ListOrdersParams holds parameters for listing orders.
type ListOrdersParams struct {
	Limit    int
	Offset   int
	Status   *domain.OrderStatus
	MinPrice *float64
	MaxPrice *float64
}

// OrderStorer defines the database operations for orders.
type OrderStorer interface {
	CreateOrder(ctx context.Context, userID int64, productIDs []int64) (*domain.Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) ([]domain.Order, int, error) // Returns orders and total count
}
