package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context, params store.ListCategoriesParams) ([]domain.Category, int, error) {
	args := m.Called(ctx, params)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Int(1), args.Error(2)
}

func (m *MockCategoryStorer) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) DeleteCategory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserStorer is a mock implementation of store.UserStorer
type MockUserStorer struct {
	mock.Mock
}

func (m *MockUserStorer) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStorer) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStorer) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockReviewStorer is a mock implementation of store.ReviewStorer
type MockReviewStorer struct {
	mock.Mock
}

func (m *MockReviewStorer) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewStorer) ListReviews(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	var reviews []domain.Review
	if arg0 := args.Get(0); arg0 != nil {
		reviews = arg0.([]domain.Review)
	}
	return reviews, args.Error(1)
}

func (m *MockReviewStorer) ListProductReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	var reviews []domain.Review
	if arg0 := args.Get(0); arg0 != nil {
		reviews = arg0.([]domain.Review)
	}
	return reviews, args.Error(1)
}

func (m *MockReviewStorer) DeleteReview(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrderStorer is a mock implementation of store.OrderStorer
type MockOrderStorer struct {
	mock.Mock
}

func (m *MockOrderStorer) CreateOrder(ctx context.Context, userID int64, productIDs []int64) (*domain.Order, error) {
	args := m.Called(ctx, userID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderStorer) ListOrders(ctx context.Context, params store.ListOrdersParams) ([]domain.Order, int, error) {
	args := m.Called(ctx, params)
	var orders []domain.Order
	if arg0 := args.Get(0); arg0 != nil {
		orders = arg0.([]domain.Order)
	}
	return orders, args.Int(1), args.Error(2)
}

// mockStores bundles one mock per storer interface for handler tests.
type mockStores struct {
	categories *MockCategoryStorer
	products   *MockProductStorer
	users      *MockUserStorer
	reviews    *MockReviewStorer
	orders     *MockOrderStorer
}

// setupTestServer starts an httptest server with all routes registered over
// fresh mocks and a throwaway token service.
func setupTestServer(t *testing.T) (*httptest.Server, *mockStores, *auth.TokenService) {
	t.Helper()

	ms := &mockStores{
		categories: new(MockCategoryStorer),
		products:   new(MockProductStorer),
		users:      new(MockUserStorer),
		reviews:    new(MockReviewStorer),
		orders:     new(MockOrderStorer),
	}
	tokens := auth.NewTokenService("test-secret", 15*time.Minute, time.Hour)

	handler := NewHTTPHandler(ms.categories, ms.products, ms.users, ms.reviews, ms.orders, tokens, zap.NewNop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, ms, tokens
}

// bearerFor issues an access token for user and formats it as an
// Authorization header value.
func bearerFor(t *testing.T, tokens *auth.TokenService, user *domain.User) string {
	t.Helper()
	token, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

// doRequest performs an HTTP request against the test server. An empty
// authHeader sends an unauthenticated request.
func doRequest(t *testing.T, method, url, body, authHeader string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
