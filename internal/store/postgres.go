package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"marketplace-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound = errors.New("store: category not found")
	ErrProductNotFound  = errors.New("store: product not found")
	ErrUserNotFound     = errors.New("store: user not found")
	ErrReviewNotFound   = errors.New("store: review not found")
	ErrEmailExists      = errors.New("store: email already registered")
	ErrSellerNotFound   = errors.New("store: seller not found or not a seller")
	ErrEmptyOrder       = errors.New("store: order must contain at least one product")
)

// Postgres error codes we map to sentinel errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// activeOnly is the soft-delete predicate. Every read applies it; rows are
// deactivated, never removed.
const activeOnly = "is_active = TRUE"

// PostgresStore implements the storer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ParentID != nil {
		exists, err := s.categoryExists(ctx, *category.ParentID)
		if err != nil {
			return nil, fmt.Errorf("store: CreateCategory failed to check parent: %w", err)
		}
		if !exists {
			return nil, ErrCategoryNotFound
		}
	}

	query := `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, name, parent_id, is_active;
	`
	row := s.db.QueryRowContext(ctx, query, category.Name, category.ParentID)

	var created domain.Category
	err := row.Scan(&created.ID, &created.Name, &created.ParentID, &created.IsActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, parent_id, is_active
		FROM categories
		WHERE id = $1 AND ` + activeOnly + `;
	`
	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.ParentID,
		&category.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return &category, nil
}

// ListCategories retrieves a paginated list of active categories.
func (s *PostgresStore) ListCategories(ctx context.Context, params ListCategoriesParams) ([]domain.Category, int, error) {
	countQuery := `SELECT COUNT(*) FROM categories WHERE ` + activeOnly + `;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories failed to count categories: %w", err)
	}

	if totalCount == 0 {
		return []domain.Category{}, 0, nil
	}

	query := `
		SELECT id, name, parent_id, is_active
		FROM categories
		WHERE ` + activeOnly + `
		ORDER BY id ASC
		LIMIT $1 OFFSET $2;
	`
	rows, err := s.db.QueryContext(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, params.Limit)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive); err != nil {
			return nil, 0, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}

	return categories, totalCount, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ParentID != nil {
		exists, err := s.categoryExists(ctx, *category.ParentID)
		if err != nil {
			return nil, fmt.Errorf("store: UpdateCategory failed to check parent: %w", err)
		}
		if !exists {
			return nil, ErrCategoryNotFound
		}
	}

	query := `
		UPDATE categories
		SET name = $1, parent_id = $2
		WHERE id = $3 AND ` + activeOnly + `
		RETURNING id, name, parent_id, is_active;
	`
	var updated domain.Category
	err := s.db.QueryRowContext(ctx, query, category.Name, category.ParentID, category.ID).Scan(
		&updated.ID,
		&updated.Name,
		&updated.ParentID,
		&updated.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: UpdateCategory failed to scan row: %w", err)
	}
	return &updated, nil
}

// DeleteCategory deactivates the category. Categories are never removed:
// child categories and products keep a valid parent reference.
func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	query := `UPDATE categories SET is_active = FALSE WHERE id = $1 AND ` + activeOnly + `;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// categoryExists reports whether a category row exists, active or not. A
// deactivated category remains a valid foreign reference.
func (s *PostgresStore) categoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1);`
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// --- ProductStorer Implementation ---

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	exists, err := s.categoryExists(ctx, product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to check category: %w", err)
	}
	if !exists {
		return nil, ErrCategoryNotFound
	}

	var sellerRole domain.Role
	roleQuery := `SELECT role FROM users WHERE id = $1 AND ` + activeOnly + `;`
	err = s.db.QueryRowContext(ctx, roleQuery, product.SellerID).Scan(&sellerRole)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("store: CreateProduct failed to check seller: %w", err)
	}
	if sellerRole != domain.RoleSeller {
		return nil, ErrSellerNotFound
	}

	query := `
		INSERT INTO products (name, description, price, image_url, stock, category_id, seller_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, description, price, image_url, stock, is_active, rating, category_id, seller_id;
	`
	row := s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.ImageURL,
		product.Stock, product.CategoryID, product.SellerID,
	)

	var created domain.Product
	err = row.Scan(
		&created.ID, &created.Name, &created.Description, &created.Price,
		&created.ImageURL, &created.Stock, &created.IsActive, &created.Rating,
		&created.CategoryID, &created.SellerID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, stock, is_active, rating, category_id, seller_id
		FROM products
		WHERE id = $1 AND ` + activeOnly + `;
	`
	var product domain.Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.ImageURL, &product.Stock, &product.IsActive, &product.Rating,
		&product.CategoryID, &product.SellerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &product, nil
}

// ListProducts retrieves a filtered, paginated product page plus the total
// number of rows matching the filters before pagination. When a non-blank
// search term is present, rows are restricted to text-index matches and
// ordered by relevance (descending), ties broken by ascending id; otherwise
// ordering is ascending by id.
func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	var queryArgs []interface{}
	whereClauses := []string{activeOnly}
	argID := 1
	searchArgID := 0

	if params.Search != nil {
		if term := strings.TrimSpace(*params.Search); term != "" {
			whereClauses = append(whereClauses,
				fmt.Sprintf("search_vector @@ plainto_tsquery('english', $%d)", argID))
			queryArgs = append(queryArgs, term)
			searchArgID = argID
			argID++
		}
	}
	if params.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("category_id = $%d", argID))
		queryArgs = append(queryArgs, *params.CategoryID)
		argID++
	}
	if params.MinPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price >= $%d", argID))
		queryArgs = append(queryArgs, *params.MinPrice)
		argID++
	}
	if params.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price <= $%d", argID))
		queryArgs = append(queryArgs, *params.MaxPrice)
		argID++
	}
	if params.SellerID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("seller_id = $%d", argID))
		queryArgs = append(queryArgs, *params.SellerID)
		argID++
	}
	if params.InStock != nil {
		if *params.InStock {
			whereClauses = append(whereClauses, "stock > 0")
		} else {
			whereClauses = append(whereClauses, "stock = 0")
		}
	}

	whereCondition := " WHERE " + strings.Join(whereClauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM products" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to count products: %w", err)
	}

	if totalCount == 0 {
		return []domain.Product{}, 0, nil
	}

	orderBy := "ORDER BY id ASC"
	if searchArgID > 0 {
		// Relevance ordering; id tie-break keeps paging deterministic.
		orderBy = fmt.Sprintf(
			"ORDER BY ts_rank(search_vector, plainto_tsquery('english', $%d)) DESC, id ASC",
			searchArgID)
	}

	dataQueryPreamble := `
		SELECT id, name, description, price, image_url, stock, is_active, rating, category_id, seller_id
		FROM products
	`
	dataQuery := fmt.Sprintf("%s%s %s LIMIT $%d OFFSET $%d",
		dataQueryPreamble, whereCondition, orderBy, argID, argID+1)

	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.Limit)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Stock,
			&p.IsActive, &p.Rating, &p.CategoryID, &p.SellerID,
		); err != nil {
			return nil, 0, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}

	return products, totalCount, nil
}

// UpdateProduct rewrites the mutable fields of an active product. Rating and
// seller are never written here: rating is derived from reviews and
// ownership is fixed at creation.
func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	exists, err := s.categoryExists(ctx, product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to check category: %w", err)
	}
	if !exists {
		return nil, ErrCategoryNotFound
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image_url = $4, stock = $5, category_id = $6
		WHERE id = $7 AND ` + activeOnly + `
		RETURNING id, name, description, price, image_url, stock, is_active, rating, category_id, seller_id;
	`
	var updated domain.Product
	err = s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.ImageURL,
		product.Stock, product.CategoryID, product.ID,
	).Scan(
		&updated.ID, &updated.Name, &updated.Description, &updated.Price,
		&updated.ImageURL, &updated.Stock, &updated.IsActive, &updated.Rating,
		&updated.CategoryID, &updated.SellerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return &updated, nil
}

// DeleteProduct deactivates a product. Deleting an already-inactive product
// reports not found rather than succeeding silently.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `UPDATE products SET is_active = FALSE WHERE id = $1 AND ` + activeOnly + `;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
