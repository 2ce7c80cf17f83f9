package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/bind"
	"github.com/shashiranjanraj/pustak/pkg/middleware"
	"github.com/shashiranjanraj/pustak/pkg/response"
	"github.com/shashiranjanraj/pustak/pkg/storage"
)

// maxCoverSize caps cover uploads at 5 MiB.
const maxCoverSize = 5 << 20

// BookController handles the catalogue endpoints.
type BookController struct {
	catalog *services.CatalogService
}

func NewBookController(catalog *services.CatalogService) *BookController {
	return &BookController{catalog: catalog}
}

// List returns the catalogue, optionally filtered by ?search, ?category,
// ?minPrice and ?maxPrice.
func (c *BookController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.BookFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}

	if raw := q.Get("minPrice"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "minPrice must be a number")
			return
		}
		filter.MinPrice = &v
	}
	if raw := q.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "maxPrice must be a number")
			return
		}
		filter.MaxPrice = &v
	}

	books, err := c.catalog.List(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, books)
}

// Get returns one book.
func (c *BookController) Get(w http.ResponseWriter, r *http.Request) {
	book, err := c.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, book)
}

type createBookRequest struct {
	Title        string `json:"title" validate:"required"`
	Author       string `json:"author" validate:"required"`
	Price        int64  `json:"price" validate:"required"`
	Category     string `json:"category"`
	Image        string `json:"image"`
	Description  string `json:"description"`
	Stock        *int   `json:"stock"`
	Availability *bool  `json:"availability"`
}

// Create adds a book to the catalogue. Admin only.
func (c *BookController) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	book, err := c.catalog.Create(r.Context(), services.CreateBookInput{
		Title:        req.Title,
		Author:       req.Author,
		Price:        req.Price,
		Category:     req.Category,
		Image:        req.Image,
		Description:  req.Description,
		Stock:        req.Stock,
		Availability: req.Availability,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, book)
}

type updateBookRequest struct {
	Title        *string `json:"title"`
	Author       *string `json:"author"`
	Price        *int64  `json:"price"`
	Category     *string `json:"category"`
	Image        *string `json:"image"`
	Description  *string `json:"description"`
	Stock        *int    `json:"stock"`
	Availability *bool   `json:"availability"`
}

// Update merges the provided fields into a book. Admin only.
func (c *BookController) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBookRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	book, err := c.catalog.Update(r.Context(), chi.URLParam(r, "id"), services.UpdateBookInput{
		Title:        req.Title,
		Author:       req.Author,
		Price:        req.Price,
		Category:     req.Category,
		Image:        req.Image,
		Description:  req.Description,
		Stock:        req.Stock,
		Availability: req.Availability,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, book)
}

// Delete removes a book. Admin only.
func (c *BookController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, err)
		return
	}

	response.Message(w, "Book deleted", nil)
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment"`
}

// AddReview appends a review to a book.
func (c *BookController) AddReview(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())

	var req reviewRequest
	if !bind.JSON(w, r, &req) {
		return
	}

	book, err := c.catalog.AddReview(r.Context(), chi.URLParam(r, "id"), id.UserID, req.Rating, req.Comment)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, book)
}

// UploadCover stores a cover image on the configured disk and points the
// book at it. Multipart field name: "cover". Admin only.
func (c *BookController) UploadCover(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize)
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing cover file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		response.Error(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Could not read cover file")
		return
	}

	path := fmt.Sprintf("covers/%s-%d%s", bookID, time.Now().UnixNano(), ext)
	if err := storage.Put(r.Context(), path, contents); err != nil {
		response.FromError(w, err)
		return
	}

	book, err := c.catalog.SetCover(r.Context(), bookID, storage.URL(path))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, book)
}
