package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestCreateBookAppliesDefaults(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)

	book, err := svc.Create(context.Background(), CreateBookInput{
		Title:  "Clean Code",
		Author: "Robert C. Martin",
		Price:  1020,
	})
	require.NoError(t, err)

	assert.Equal(t, "General", book.Category)
	assert.Equal(t, 10, book.Stock)
	assert.True(t, book.Availability)
	assert.False(t, book.ID.IsZero())
}

func TestCreateBookHonoursExplicitZeroStockAndUnavailability(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)

	book, err := svc.Create(context.Background(), CreateBookInput{
		Title:        "Out of print",
		Author:       "Nobody",
		Price:        500,
		Stock:        intPtr(0),
		Availability: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, book.Stock)
	assert.False(t, book.Availability)
}

func TestCreateBookValidation(t *testing.T) {
	svc := NewCatalogService(newFakeBookStore())

	_, err := svc.Create(context.Background(), CreateBookInput{Author: "a", Price: 10})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(context.Background(), CreateBookInput{Title: "t", Author: "a", Price: 0})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(context.Background(), CreateBookInput{Title: "t", Author: "a", Price: 10, Stock: intPtr(-1)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateBookMergesOnlyProvidedFields(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)

	id := books.add(models.Book{Title: "Old", Author: "Author", Price: 100, Category: "Programming", Stock: 5, Availability: true})

	updated, err := svc.Update(context.Background(), id.Hex(), UpdateBookInput{
		Title: strPtr("New"),
		Stock: intPtr(0),
	})
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, 0, updated.Stock, "explicit zero must stick")
	assert.Equal(t, "Author", updated.Author, "untouched fields must survive")
	assert.Equal(t, "Programming", updated.Category)
	assert.Equal(t, int64(100), updated.Price)
}

func TestUpdateBookBlankStringsNeverClearFields(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)

	id := books.add(models.Book{Title: "Old", Author: "Author", Price: 100, Category: "Programming", Description: "desc", Stock: 5})

	updated, err := svc.Update(context.Background(), id.Hex(), UpdateBookInput{
		Title:       strPtr(""),
		Category:    strPtr(""),
		Description: strPtr(""),
		Price:       int64Ptr(0),
	})
	require.NoError(t, err)

	assert.Equal(t, "Old", updated.Title)
	assert.Equal(t, "Programming", updated.Category)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, int64(100), updated.Price)
}

func TestUpdateBookRejectsBadValues(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)
	id := books.add(models.Book{Title: "T", Author: "A", Price: 100, Stock: 5})

	_, err := svc.Update(context.Background(), id.Hex(), UpdateBookInput{Price: int64Ptr(-5)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Update(context.Background(), id.Hex(), UpdateBookInput{Stock: intPtr(-3)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestGetBookNotFound(t *testing.T) {
	svc := NewCatalogService(newFakeBookStore())

	_, err := svc.Get(context.Background(), "64b0c0c0c0c0c0c0c0c0c0c0")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.Get(context.Background(), "not-an-id")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAddReviewRecalculatesAverage(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)
	id := books.add(models.Book{Title: "T", Author: "A", Price: 100, Stock: 5})
	userID := "64b0c0c0c0c0c0c0c0c0c0c0"

	_, err := svc.AddReview(context.Background(), id.Hex(), userID, 5, "great")
	require.NoError(t, err)

	book, err := svc.AddReview(context.Background(), id.Hex(), userID, 2, "meh")
	require.NoError(t, err)

	assert.Len(t, book.Reviews, 2)
	assert.InDelta(t, 3.5, book.Ratings, 0.001)
}

func TestAddReviewRejectsOutOfRangeRating(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)
	id := books.add(models.Book{Title: "T", Author: "A", Price: 100})

	_, err := svc.AddReview(context.Background(), id.Hex(), "64b0c0c0c0c0c0c0c0c0c0c0", 6, "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.AddReview(context.Background(), id.Hex(), "64b0c0c0c0c0c0c0c0c0c0c0", 0, "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDeleteBook(t *testing.T) {
	books := newFakeBookStore()
	svc := NewCatalogService(books)
	id := books.add(models.Book{Title: "T", Author: "A", Price: 100})

	require.NoError(t, svc.Delete(context.Background(), id.Hex()))

	err := svc.Delete(context.Background(), id.Hex())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
