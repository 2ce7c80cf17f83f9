// Package repositories implements the MongoDB persistence layer.
package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
)

// BookRepository persists books in the books collection.
type BookRepository struct {
	coll *mongo.Collection
}

func NewBookRepository(coll *mongo.Collection) *BookRepository {
	return &BookRepository{coll: coll}
}

// List returns books matching the filter, newest first.
func (r *BookRepository) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	query := bson.M{}

	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
		}
	}

	if filter.Category != "" && filter.Category != "all" {
		query["category"] = filter.Category
	}

	if filter.MinPrice != nil || filter.MaxPrice != nil {
		price := bson.M{}
		if filter.MinPrice != nil {
			price["$gte"] = *filter.MinPrice
		}
		if filter.MaxPrice != nil {
			price["$lte"] = *filter.MaxPrice
		}
		query["price"] = price
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cur.Close(ctx)

	books := make([]models.Book, 0)
	if err := cur.All(ctx, &books); err != nil {
		return nil, apperr.Internal(err)
	}

	return books, nil
}

// Get returns one book by id.
func (r *BookRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.KindNotFound, "Book not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &book, nil
}

// Create inserts a book and fills in its generated ID.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, book)
	if err != nil {
		return apperr.Internal(err)
	}

	book.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Update replaces the stored document with book.
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": book.ID}, book)
	if err != nil {
		return apperr.Internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	return nil
}

// Delete removes a book by id.
func (r *BookRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	return nil
}

// DecrementStock atomically takes qty units off a book's stock. The
// filter requires stock >= qty, so a concurrent order can never push
// stock negative; a non-match on an existing book means insufficient
// stock.
func (r *BookRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return apperr.Internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindInsufficientStock, "Insufficient stock")
	}
	return nil
}

// IncrementStock returns qty units to a book's stock. Used by cancel,
// return completion, and compensation when a multi-item decrement fails
// part-way.
func (r *BookRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return apperr.Internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	return nil
}
