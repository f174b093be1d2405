package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/domain"
)

// newTestStore returns a PostgresStore backed by a sqlmock connection using
// regexp query matching.
func newTestStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func ptrTo[T any](v T) *T {
	return &v
}

func TestPostgresStore_CreateCategory(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories (name, parent_id)`)).
		WithArgs("Electronics", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "is_active"}).
			AddRow(1, "Electronics", nil, true))

	created, err := s.CreateCategory(context.Background(), &domain.Category{Name: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Electronics", created.Name)
	assert.Nil(t, created.ParentID)
	assert.True(t, created.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCategory_WithParent(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories (name, parent_id)`)).
		WithArgs("Laptops", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "is_active"}).
			AddRow(2, "Laptops", 1, true))

	created, err := s.CreateCategory(context.Background(), &domain.Category{
		Name:     "Laptops",
		ParentID: ptrTo(int64(1)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, int64(1), *created.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCategory_ParentMissing(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	created, err := s.CreateCategory(context.Background(), &domain.Category{
		Name:     "Orphan",
		ParentID: ptrTo(int64(99)),
	})
	assert.Nil(t, created)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCategoryByID(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, parent_id, is_active
		FROM categories`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "is_active"}).
			AddRow(1, "Electronics", nil, true))

	category, err := s.GetCategoryByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Electronics", category.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCategoryByID_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM categories`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	category, err := s.GetCategoryByID(context.Background(), 404)
	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCategories(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories WHERE is_active = TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id ASC
		LIMIT $1 OFFSET $2`)).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id", "is_active"}).
			AddRow(1, "Electronics", nil, true).
			AddRow(2, "Laptops", 1, true))

	categories, total, err := s.ListCategories(context.Background(), ListCategoriesParams{Limit: 10, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, categories, 2)
	assert.Equal(t, "Laptops", categories[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCategories_Empty(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories WHERE is_active = TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	categories, total, err := s.ListCategories(context.Background(), ListCategoriesParams{Limit: 10, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCategory_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE categories
		SET name = $1, parent_id = $2`)).
		WithArgs("Renamed", nil, int64(404)).
		WillReturnError(sql.ErrNoRows)

	updated, err := s.UpdateCategory(context.Background(), &domain.Category{ID: 404, Name: "Renamed"})
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCategory(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE categories SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.DeleteCategory(context.Background(), 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCategory_AlreadyInactive(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE categories SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteCategory(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
