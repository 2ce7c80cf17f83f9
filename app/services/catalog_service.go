package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
	"github.com/shashiranjanraj/pustak/pkg/cache"
)

const (
	defaultCategory = "General"
	defaultStock    = 10

	bookCacheTTL    = 5 * time.Minute
	bookListKey     = "books:all"
	bookKeyPrefix   = "book:"
	maxReviewRating = 5
)

// CatalogService owns the book catalogue: listing, CRUD, reviews and
// the stock counters the order engine drives.
type CatalogService struct {
	books BookStore
}

func NewCatalogService(books BookStore) *CatalogService {
	return &CatalogService{books: books}
}

// List returns books matching filter. The unfiltered listing is served
// from cache when possible.
func (s *CatalogService) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	cacheable := filter == (models.BookFilter{})

	if cacheable {
		var cached []models.Book
		if cache.Get(bookListKey, &cached) {
			return cached, nil
		}
	}

	books, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if cacheable {
		cache.Set(bookListKey, books, bookCacheTTL)
	}

	return books, nil
}

// Get returns one book by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var cached models.Book
	if cache.Get(bookKeyPrefix+id, &cached) {
		return &cached, nil
	}

	book, err := s.books.Get(ctx, oid)
	if err != nil {
		return nil, err
	}

	cache.Set(bookKeyPrefix+id, book, bookCacheTTL)
	return book, nil
}

// CreateBookInput is the admin create payload. Optional fields use
// pointers so "absent" and "zero" stay distinguishable.
type CreateBookInput struct {
	Title        string
	Author       string
	Price        int64
	Category     string
	Image        string
	Description  string
	Stock        *int
	Availability *bool
}

// Create adds a book to the catalogue. Missing category, stock and
// availability fall back to defaults.
func (s *CatalogService) Create(ctx context.Context, in CreateBookInput) (*models.Book, error) {
	if in.Title == "" || in.Author == "" {
		return nil, apperr.New(apperr.KindValidation, "Title and author are required")
	}
	if in.Price <= 0 {
		return nil, apperr.New(apperr.KindValidation, "Price must be positive")
	}

	book := &models.Book{
		Title:        in.Title,
		Author:       in.Author,
		Price:        in.Price,
		Category:     in.Category,
		Image:        in.Image,
		Description:  in.Description,
		Availability: true,
		Stock:        defaultStock,
		Reviews:      []models.Review{},
	}

	if book.Category == "" {
		book.Category = defaultCategory
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apperr.New(apperr.KindValidation, "Stock cannot be negative")
		}
		book.Stock = *in.Stock
	}
	if in.Availability != nil {
		book.Availability = *in.Availability
	}

	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}

	s.invalidate(book.ID.Hex())
	return book, nil
}

// UpdateBookInput is a partial update; nil fields are left untouched.
type UpdateBookInput struct {
	Title        *string
	Author       *string
	Price        *int64
	Category     *string
	Image        *string
	Description  *string
	Stock        *int
	Availability *bool
}

// Update merges the provided fields into the stored book. Blank strings
// never clear title, author, category or description, and a zero price
// is treated as absent; image, stock and availability accept explicit
// zero values.
func (s *CatalogService) Update(ctx context.Context, id string, in UpdateBookInput) (*models.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	book, err := s.books.Get(ctx, oid)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && *in.Title != "" {
		book.Title = *in.Title
	}
	if in.Author != nil && *in.Author != "" {
		book.Author = *in.Author
	}
	if in.Price != nil && *in.Price != 0 {
		if *in.Price < 0 {
			return nil, apperr.New(apperr.KindValidation, "Price must be positive")
		}
		book.Price = *in.Price
	}
	if in.Category != nil && *in.Category != "" {
		book.Category = *in.Category
	}
	if in.Image != nil {
		book.Image = *in.Image
	}
	if in.Description != nil && *in.Description != "" {
		book.Description = *in.Description
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apperr.New(apperr.KindValidation, "Stock cannot be negative")
		}
		book.Stock = *in.Stock
	}
	if in.Availability != nil {
		book.Availability = *in.Availability
	}

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}

	s.invalidate(id)
	return book, nil
}

// Delete removes a book from the catalogue.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	if err := s.books.Delete(ctx, oid); err != nil {
		return err
	}

	s.invalidate(id)
	return nil
}

// AddReview appends a customer review and refreshes the average rating.
func (s *CatalogService) AddReview(ctx context.Context, bookID, userID string, rating int, comment string) (*models.Book, error) {
	if rating < 1 || rating > maxReviewRating {
		return nil, apperr.Newf(apperr.KindValidation, "Rating must be between 1 and %d", maxReviewRating)
	}

	oid, err := parseID(bookID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	book, err := s.books.Get(ctx, oid)
	if err != nil {
		return nil, err
	}

	book.Reviews = append(book.Reviews, models.Review{
		UserID:    uid,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
	book.RecalcRatings()

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}

	s.invalidate(bookID)
	return book, nil
}

// SetCover points the book's image at a newly uploaded cover.
func (s *CatalogService) SetCover(ctx context.Context, id, imageURL string) (*models.Book, error) {
	return s.Update(ctx, id, UpdateBookInput{Image: &imageURL})
}

// cacheDel is replaceable so tests can observe invalidations.
var cacheDel = cache.Del

func (s *CatalogService) invalidate(id string) {
	cacheDel(bookListKey, fmt.Sprintf("%s%s", bookKeyPrefix, id))
}
