// Package seeders loads development fixtures into MongoDB.
package seeders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/logger"
)

// bookFixtures is the starter catalogue.
var bookFixtures = []models.Book{
	{Title: "Clean Code", Author: "Robert C. Martin", Price: 1020, Category: "Programming", Stock: 15, Ratings: 4.8, Description: "A handbook of agile software craftsmanship."},
	{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Price: 945, Category: "Programming", Stock: 12, Ratings: 4.7, Description: "Your journey to mastery."},
	{Title: "Machine Learning", Author: "Tom M. Mitchell", Price: 1450, Category: "AI", Stock: 8, Ratings: 4.5, Description: "Classic introduction to machine learning."},
	{Title: "C Programming Language", Author: "Brian W. Kernighan", Price: 310, Category: "Programming", Stock: 20, Ratings: 4.6, Description: "The definitive C reference."},
	{Title: "React JS Essentials", Author: "Artemij Fedosejev", Price: 670, Category: "Web Development", Stock: 10, Ratings: 4.2, Description: "Building user interfaces with React."},
	{Title: "Node JS in Action", Author: "Mike Cantelon", Price: 680, Category: "Web Development", Stock: 10, Ratings: 4.3, Description: "Server-side JavaScript, end to end."},
	{Title: "Python Crash Course", Author: "Eric Matthes", Price: 895, Category: "Programming", Stock: 18, Ratings: 4.7, Description: "A hands-on, project-based introduction to Python."},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: 1250, Category: "Databases", Stock: 9, Ratings: 4.9, Description: "The big ideas behind reliable, scalable systems."},
	{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", Price: 990, Category: "Programming", Stock: 14, Ratings: 4.8, Description: "The authoritative Go resource."},
	{Title: "Introduction to Algorithms", Author: "Thomas H. Cormen", Price: 1550, Category: "Computer Science", Stock: 7, Ratings: 4.6, Description: "The CLRS algorithms text."},
	{Title: "Deep Learning", Author: "Ian Goodfellow", Price: 1700, Category: "AI", Stock: 6, Ratings: 4.4, Description: "The deep learning textbook."},
	{Title: "Refactoring", Author: "Martin Fowler", Price: 1100, Category: "Programming", Stock: 11, Ratings: 4.5, Description: "Improving the design of existing code."},
}

// SeedBooks inserts the starter catalogue when the books collection is
// empty. Safe to run repeatedly.
func SeedBooks(ctx context.Context, coll *mongo.Collection) error {
	count, err := coll.CountDocuments(ctx, map[string]interface{}{})
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("books already seeded, skipping", "count", count)
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(bookFixtures))
	for _, b := range bookFixtures {
		b.Availability = true
		b.Reviews = []models.Review{}
		b.CreatedAt = now
		b.UpdatedAt = now
		docs = append(docs, b)
	}

	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return err
	}

	logger.Info("seeded books", "count", len(docs))
	return nil
}
