package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace-service/internal/domain"
)

// --- ReviewStorer Implementation ---

// CreateReview inserts a review and recomputes the target product's rating
// as the mean grade of its active reviews, all in one transaction. The
// product row is locked first, so two concurrent reviews for the same
// product serialize their read-modify-write and neither average is lost.
// Any failure rolls back both the review and the rating.
func (s *PostgresStore) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateReview failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `SELECT id FROM products WHERE id = $1 AND ` + activeOnly + ` FOR UPDATE;`
	var lockedID int64
	if err := tx.QueryRowContext(ctx, lockQuery, review.ProductID).Scan(&lockedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: CreateReview failed to lock product: %w", err)
	}

	insertQuery := `
		INSERT INTO reviews (user_id, product_id, comment, comment_date, grade)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, product_id, comment, comment_date, grade, is_active;
	`
	var created domain.Review
	err = tx.QueryRowContext(ctx, insertQuery,
		review.UserID, review.ProductID, review.Comment, review.CommentDate, review.Grade,
	).Scan(
		&created.ID, &created.UserID, &created.ProductID, &created.Comment,
		&created.CommentDate, &created.Grade, &created.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("store: CreateReview failed to scan row: %w", err)
	}

	ratingQuery := `
		UPDATE products
		SET rating = COALESCE((SELECT AVG(grade) FROM reviews WHERE product_id = $1 AND ` + activeOnly + `), 0)
		WHERE id = $1;
	`
	if _, err := tx.ExecContext(ctx, ratingQuery, review.ProductID); err != nil {
		return nil, fmt.Errorf("store: CreateReview failed to recompute rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateReview failed to commit transaction: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListReviews(ctx context.Context) ([]domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, comment, comment_date, grade, is_active
		FROM reviews
		WHERE ` + activeOnly + `
		ORDER BY id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListReviews failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.ProductID, &r.Comment, &r.CommentDate, &r.Grade, &r.IsActive,
		); err != nil {
			return nil, fmt.Errorf("store: ListReviews failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListReviews iteration error: %w", err)
	}
	return reviews, nil
}

// ListProductReviews returns the active reviews of an active product.
// A missing or inactive product is reported as not found rather than as an
// empty list.
func (s *PostgresStore) ListProductReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	var exists bool
	existsQuery := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND ` + activeOnly + `);`
	if err := s.db.QueryRowContext(ctx, existsQuery, productID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("store: ListProductReviews failed to check product: %w", err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	query := `
		SELECT id, user_id, product_id, comment, comment_date, grade, is_active
		FROM reviews
		WHERE product_id = $1 AND ` + activeOnly + `
		ORDER BY id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListProductReviews failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.ProductID, &r.Comment, &r.CommentDate, &r.Grade, &r.IsActive,
		); err != nil {
			return nil, fmt.Errorf("store: ListProductReviews failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProductReviews iteration error: %w", err)
	}
	return reviews, nil
}

// DeleteReview deactivates a review. The product's rating is not touched
// here; the next review creation recomputes it over the remaining active
// reviews.
func (s *PostgresStore) DeleteReview(ctx context.Context, id int64) error {
	query := `UPDATE reviews SET is_active = FALSE WHERE id = $1 AND ` + activeOnly + `;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteReview failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteReview failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}
