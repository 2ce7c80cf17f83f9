package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a customer review embedded in a book document.
type Review struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Book is a catalogue entry. Price is stored in whole currency units.
// Availability is informational; it is not forced to track stock==0.
type Book struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Author       string             `bson:"author" json:"author"`
	Price        int64              `bson:"price" json:"price"`
	Category     string             `bson:"category" json:"category"`
	Image        string             `bson:"image" json:"image"`
	Description  string             `bson:"description" json:"description"`
	Availability bool               `bson:"availability" json:"availability"`
	Stock        int                `bson:"stock" json:"stock"`
	Ratings      float64            `bson:"ratings" json:"ratings"`
	Reviews      []Review           `bson:"reviews" json:"reviews"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecalcRatings recomputes the average rating from the embedded reviews.
func (b *Book) RecalcRatings() {
	if len(b.Reviews) == 0 {
		return
	}
	var sum int
	for _, r := range b.Reviews {
		sum += r.Rating
	}
	b.Ratings = float64(sum) / float64(len(b.Reviews))
}
