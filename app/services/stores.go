// Package services implements the business rules. Services depend on
// narrow store interfaces rather than concrete repositories so the rules
// are testable with in-memory fakes.
package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/ws"
)

// BookStore is the persistence contract the catalogue and order rules need.
type BookStore interface {
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// DecrementStock must be atomic and conditional: it fails with an
	// insufficient-stock error instead of driving stock negative.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// UserStore is the persistence contract for accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, email, hash string) error
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
}

// OrderStore is the persistence contract for orders.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Feed pushes realtime events to connected admin clients. *ws.Hub
// satisfies it; services treat a nil feed as "no feed".
type Feed interface {
	Broadcast(ev ws.Event)
}

// Recorder appends to the order audit trail. *audit.Trail satisfies it.
type Recorder interface {
	Record(orderID, userID, action, detail string)
}
