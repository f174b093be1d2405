package domain

import (
	"time"
)

// Role is the access level assigned to a user account.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderInProcess OrderStatus = "in process"
	OrderPaid      OrderStatus = "paid"
	OrderCanceled  OrderStatus = "canceled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderInProcess, OrderPaid, OrderCanceled:
		return true
	}
	return false
}

// Category represents a product category. Categories form a tree through
// ParentID; an inactive category is soft-deleted, never removed.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"` // Pointer for nullable self-reference
	IsActive bool   `json:"is_active"`
}

// Product represents a listing in the catalog. Rating is derived: it is
// always the mean grade of the product's active reviews (0 if none) and is
// only rewritten by the review creation path.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    *string `json:"image_url,omitempty"` // Pointer for nullable field
	Stock       int32   `json:"stock"`
	IsActive    bool    `json:"is_active"`
	Rating      float64 `json:"rating"`
	CategoryID  int64   `json:"category_id"`
	SellerID    int64   `json:"seller_id"`
}

// User represents an account. HashedPassword is never serialized.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	IsActive       bool   `json:"is_active"`
	Role           Role   `json:"role"`
}

// Review is a buyer's grade of a product, 1 through 5.
type Review struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ProductID   int64     `json:"product_id"`
	Comment     *string   `json:"comment,omitempty"`
	CommentDate time.Time `json:"comment_date"`
	Grade       int       `json:"grade"`
	IsActive    bool      `json:"is_active"`
}

// Order groups purchased products for a user. Line items are a plain
// many-to-many association; TotalPrice is snapshotted at creation.
type Order struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	Status     OrderStatus `json:"status"`
	TotalPrice float64     `json:"total_price"`
	IsActive   bool        `json:"is_active"`
	ProductIDs []int64     `json:"product_ids,omitempty"`
}
