package services

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
	"github.com/shashiranjanraj/pustak/pkg/payment"
	"github.com/shashiranjanraj/pustak/pkg/ws"
)

// fakeBookStore is an in-memory BookStore with the same conditional
// decrement semantics as the Mongo repository.
type fakeBookStore struct {
	mu    sync.Mutex
	books map[primitive.ObjectID]*models.Book

	failDecrementFor map[primitive.ObjectID]bool // force a race-lost decrement
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{
		books:            make(map[primitive.ObjectID]*models.Book),
		failDecrementFor: make(map[primitive.ObjectID]bool),
	}
}

func (s *fakeBookStore) add(book models.Book) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if book.ID.IsZero() {
		book.ID = primitive.NewObjectID()
	}
	b := book
	s.books[b.ID] = &b
	return b.ID
}

func (s *fakeBookStore) List(ctx context.Context, filter models.BookFilter) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, *b)
	}
	return out, nil
}

func (s *fakeBookStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Book not found")
	}
	copied := *b
	return &copied, nil
}

func (s *fakeBookStore) Create(ctx context.Context, book *models.Book) error {
	book.ID = s.add(*book)
	return nil
}

func (s *fakeBookStore) Update(ctx context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	copied := *book
	s.books[book.ID] = &copied
	return nil
}

func (s *fakeBookStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	delete(s.books, id)
	return nil
}

func (s *fakeBookStore) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	if s.failDecrementFor[id] || b.Stock < qty {
		return apperr.New(apperr.KindInsufficientStock, "Insufficient stock")
	}
	b.Stock -= qty
	return nil
}

func (s *fakeBookStore) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Book not found")
	}
	b.Stock += qty
	return nil
}

func (s *fakeBookStore) stockOf(id primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id].Stock
}

// fakeUserStore is an in-memory UserStore with unique username/email.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *fakeUserStore) add(user models.User) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u := user
	s.users[u.ID] = &u
	return u.ID
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperr.New(apperr.KindConflict, "Username or email already taken")
		}
	}
	user.ID = primitive.NewObjectID()
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (s *fakeUserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.User)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (s *fakeUserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			u.Password = hash
			return nil
		}
	}
	return apperr.New(apperr.KindNotFound, "User not found")
}

func (s *fakeUserStore) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	u.Role = role
	return nil
}

// fakeOrderStore is an in-memory OrderStore.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order

	failCreate bool // force a persistence failure after stock was taken
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *fakeOrderStore) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return apperr.Internal(nil)
	}
	order.ID = primitive.NewObjectID()
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *fakeOrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Order not found")
	}
	copied := *o
	return &copied, nil
}

func (s *fakeOrderStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) FindAll(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeOrderStore) Update(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "Order not found")
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *fakeOrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return apperr.New(apperr.KindNotFound, "Order not found")
	}
	delete(s.orders, id)
	return nil
}

// fakeFeed captures broadcast events.
type fakeFeed struct {
	mu     sync.Mutex
	events []ws.Event
}

func (f *fakeFeed) Broadcast(ev ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeFeed) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

// fakeRecorder captures audit entries.
type fakeRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (r *fakeRecorder) Record(orderID, userID, action, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

// fakeProvider is a scriptable payment.Provider.
type fakeProvider struct {
	intents map[string]*payment.Intent
	created []string // order ids passed to CreateIntent
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: make(map[string]*payment.Intent)}
}

func (p *fakeProvider) CreateIntent(ctx context.Context, amountMinor int64, currency, orderID string) (*payment.Intent, error) {
	p.created = append(p.created, orderID)
	intent := &payment.Intent{
		ID:           "pi_" + orderID,
		ClientSecret: "secret_" + orderID,
		Status:       "requires_payment_method",
	}
	p.intents[intent.ID] = intent
	return intent, nil
}

func (p *fakeProvider) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	intent, ok := p.intents[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Intent not found")
	}
	return intent, nil
}
