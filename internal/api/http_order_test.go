package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

type orderPage struct {
	Items    []domain.Order `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func TestListOrders(t *testing.T) {
	server, ms, _ := setupTestServer(t)

	expected := store.ListOrdersParams{
		Limit:  10,
		Offset: 0,
		Status: PtrTo(domain.OrderPaid),
	}
	ms.orders.On("ListOrders", mock.Anything, expected).
		Return([]domain.Order{
			{ID: 42, UserID: 7, Status: domain.OrderPaid, TotalPrice: 179.98, IsActive: true},
		}, 1, nil)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/orders?status=paid", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := decodeBody[orderPage](t, resp)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.OrderPaid, page.Items[0].Status)
	ms.orders.AssertExpectations(t)
}

func TestListOrders_InvalidStatus(t *testing.T) {
	server, ms, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/orders?status=shipped", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	ms.orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestListOrders_InvertedPriceRange(t *testing.T) {
	server, ms, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/orders?min_price=200&max_price=50", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	ms.orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestCreateOrder_AsBuyer(t *testing.T) {
	server, ms, tokens := setupTestServer(t)

	buyer := &domain.User{ID: 3, Email: "buyer@example.com", IsActive: true, Role: domain.RoleBuyer}
	ms.users.On("GetUserByID", mock.Anything, int64(3)).Return(buyer, nil)
	ms.orders.On("CreateOrder", mock.Anything, int64(3), []int64{1, 2}).
		Return(&domain.Order{
			ID: 42, UserID: 3, Status: domain.OrderInProcess, TotalPrice: 179.98,
			IsActive: true, ProductIDs: []int64{1, 2},
		}, nil)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/orders",
		`{"product_ids": [1, 2]}`, bearerFor(t, tokens, buyer))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[domain.Order](t, resp)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, domain.OrderInProcess, created.Status)
	assert.Equal(t, []int64{1, 2}, created.ProductIDs)
	ms.orders.AssertExpectations(t)
}

func TestCreateOrder_EmptyProducts(t *testing.T) {
	server, ms, tokens := setupTestServer(t)

	buyer := &domain.User{ID: 3, Email: "buyer@example.com", IsActive: true, Role: domain.RoleBuyer}
	ms.users.On("GetUserByID", mock.Anything, int64(3)).Return(buyer, nil)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/orders",
		`{"product_ids": []}`, bearerFor(t, tokens, buyer))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	ms.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_ProductMissing(t *testing.T) {
	server, ms, tokens := setupTestServer(t)

	buyer := &domain.User{ID: 3, Email: "buyer@example.com", IsActive: true, Role: domain.RoleBuyer}
	ms.users.On("GetUserByID", mock.Anything, int64(3)).Return(buyer, nil)
	ms.orders.On("CreateOrder", mock.Anything, int64(3), []int64{1, 404}).
		Return(nil, store.ErrProductNotFound)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/orders",
		`{"product_ids": [1, 404]}`, bearerFor(t, tokens, buyer))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	ms.orders.AssertExpectations(t)
}

func TestCreateOrder_AsSellerForbidden(t *testing.T) {
	server, ms, tokens := setupTestServer(t)

	seller := &domain.User{ID: 7, Email: "seller@example.com", IsActive: true, Role: domain.RoleSeller}
	ms.users.On("GetUserByID", mock.Anything, int64(7)).Return(seller, nil)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/orders",
		`{"product_ids": [1]}`, bearerFor(t, tokens, seller))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	ms.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}
