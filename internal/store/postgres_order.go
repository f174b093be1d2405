package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"marketplace-service/internal/domain"
)

// --- OrderStorer Implementation ---

// CreateOrder creates an order for the given products in one transaction.
// TotalPrice is snapshotted as the sum of the item prices at creation time;
// stock is not reserved or decremented here.
func (s *PostgresStore) CreateOrder(ctx context.Context, userID int64, productIDs []int64) (*domain.Order, error) {
	if len(productIDs) == 0 {
		return nil, ErrEmptyOrder
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	priceQuery := `SELECT id, price FROM products WHERE id = ANY($1) AND ` + activeOnly + `;`
	rows, err := tx.QueryContext(ctx, priceQuery, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to query products: %w", err)
	}

	prices := make(map[int64]float64, len(productIDs))
	for rows.Next() {
		var id int64
		var price float64
		if err := rows.Scan(&id, &price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: CreateOrder failed to scan product row: %w", err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("store: CreateOrder iteration error: %w", err)
	}
	rows.Close()

	var totalPrice float64
	for _, id := range productIDs {
		price, ok := prices[id]
		if !ok {
			return nil, ErrProductNotFound
		}
		totalPrice += price
	}

	insertQuery := `
		INSERT INTO orders (user_id, status, total_price)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, status, total_price, is_active;
	`
	var created domain.Order
	err = tx.QueryRowContext(ctx, insertQuery, userID, domain.OrderInProcess, totalPrice).Scan(
		&created.ID, &created.UserID, &created.Status, &created.TotalPrice, &created.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to scan row: %w", err)
	}

	itemQuery := `INSERT INTO order_products (order_id, product_id) VALUES ($1, $2);`
	for _, productID := range productIDs {
		if _, err := tx.ExecContext(ctx, itemQuery, created.ID, productID); err != nil {
			return nil, fmt.Errorf("store: CreateOrder failed to insert line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to commit transaction: %w", err)
	}

	created.ProductIDs = productIDs
	return &created, nil
}

// ListOrders retrieves a filtered, paginated order page plus the total
// count before pagination, mirroring the product listing shape.
func (s *PostgresStore) ListOrders(ctx context.Context, params ListOrdersParams) ([]domain.Order, int, error) {
	var queryArgs []interface{}
	whereClauses := []string{activeOnly}
	argID := 1

	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argID))
		queryArgs = append(queryArgs, *params.Status)
		argID++
	}
	if params.MinPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("total_price >= $%d", argID))
		queryArgs = append(queryArgs, *params.MinPrice)
		argID++
	}
	if params.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("total_price <= $%d", argID))
		queryArgs = append(queryArgs, *params.MaxPrice)
		argID++
	}

	whereCondition := " WHERE " + strings.Join(whereClauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM orders" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders failed to count orders: %w", err)
	}

	if totalCount == 0 {
		return []domain.Order{}, 0, nil
	}

	dataQueryPreamble := `
		SELECT id, user_id, status, total_price, is_active
		FROM orders
	`
	dataQuery := fmt.Sprintf("%s%s ORDER BY id ASC LIMIT $%d OFFSET $%d",
		dataQueryPreamble, whereCondition, argID, argID+1)

	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, params.Limit)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.IsActive); err != nil {
			return nil, 0, fmt.Errorf("store: ListOrders failed to scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders iteration error: %w", err)
	}

	return orders, totalCount, nil
}
