package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
	"github.com/shashiranjanraj/pustak/pkg/router"
)

// memBooks is a minimal in-memory services.BookStore for handler tests.
type memBooks struct {
	mu    sync.Mutex
	books map[primitive.ObjectID]models.Book
}

func newMemBooks() *memBooks {
	return &memBooks{books: make(map[primitive.ObjectID]models.Book)}
}

func (s *memBooks) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	return out, nil
}

func (s *memBooks) Get(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Book not found")
	}
	return &b, nil
}

func (s *memBooks) Create(ctx context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	book.ID = primitive.NewObjectID()
	s.books[book.ID] = *book
	return nil
}

func (s *memBooks) Update(ctx context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	s.books[book.ID] = *book
	return nil
}

func (s *memBooks) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	delete(s.books, id)
	return nil
}

func (s *memBooks) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	return nil
}

func (s *memBooks) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	return nil
}

func bookTestRouter(store *memBooks) http.Handler {
	c := NewBookController(services.NewCatalogService(store))

	r := router.New()
	r.Get("/api/books", "books.list", c.List)
	r.Get("/api/books/{id}", "books.get", c.Get)
	r.Post("/api/books", "books.create", c.Create)
	r.Put("/api/books/{id}", "books.update", c.Update)
	return r.Handler()
}

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetBookNotFoundEnvelope(t *testing.T) {
	h := bookTestRouter(newMemBooks())

	req := httptest.NewRequest(http.MethodGet, "/api/books/64b0c0c0c0c0c0c0c0c0c0c0", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, "Book not found", env.Message)
}

func TestCreateBookValidationEnvelope(t *testing.T) {
	h := bookTestRouter(newMemBooks())

	body := `{"author": "someone"}`
	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Errors, "title")
	assert.Contains(t, env.Errors, "price")
}

func TestCreateAndFetchBook(t *testing.T) {
	store := newMemBooks()
	h := bookTestRouter(store)

	body := `{"title": "Clean Code", "author": "Robert C. Martin", "price": 1020}`
	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Book
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "General", created.Category)
	assert.Equal(t, 10, created.Stock)

	req = httptest.NewRequest(http.MethodGet, "/api/books/"+created.ID.Hex(), nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateBookPartialPayload(t *testing.T) {
	store := newMemBooks()
	h := bookTestRouter(store)

	var id primitive.ObjectID
	{
		book := models.Book{Title: "Old", Author: "A", Price: 100, Stock: 5, Availability: true}
		require.NoError(t, store.Create(context.Background(), &book))
		id = book.ID
	}

	body := `{"stock": 0}`
	req := httptest.NewRequest(http.MethodPut, "/api/books/"+id.Hex(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Book
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Old", updated.Title)
	assert.True(t, updated.Availability)
}

func TestListBadPriceFilter(t *testing.T) {
	h := bookTestRouter(newMemBooks())

	req := httptest.NewRequest(http.MethodGet, "/api/books?minPrice=abc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
