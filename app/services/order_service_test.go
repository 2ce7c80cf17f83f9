package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
)

type orderFixture struct {
	svc    *OrderService
	orders *fakeOrderStore
	books  *fakeBookStore
	users  *fakeUserStore
	feed   *fakeFeed
	trail  *fakeRecorder

	userID primitive.ObjectID
	addrID string
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		orders: newFakeOrderStore(),
		books:  newFakeBookStore(),
		users:  newFakeUserStore(),
		feed:   &fakeFeed{},
		trail:  &fakeRecorder{},
	}

	f.addrID = "addr-1"
	f.userID = f.users.add(models.User{
		Username: "asha",
		Email:    "asha@example.com",
		Role:     models.RoleUser,
		Addresses: []models.Address{
			{ID: f.addrID, Name: "Asha", Mobile: "9999999999", Email: "asha@example.com", Address: "12 MG Road", City: "Pune", State: "MH"},
		},
	})

	f.svc = NewOrderService(f.orders, f.books, f.users, f.feed, f.trail, 7*24*time.Hour)
	return f
}

func (f *orderFixture) addBook(title string, price int64, stock int) primitive.ObjectID {
	return f.books.add(models.Book{Title: title, Author: "someone", Price: price, Stock: stock, Availability: true})
}

func (f *orderFixture) placeOrder(t *testing.T, bookID primitive.ObjectID, qty int) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), f.userID.Hex(), CreateOrderInput{
		Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: qty}},
		AddressID:     f.addrID,
		PaymentMethod: models.PaymentCard,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderTakesStockAndSnapshotsPrices(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)

	order := f.placeOrder(t, bookID, 2)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.ReturnNone, order.ReturnStatus)
	assert.Equal(t, int64(2040), order.TotalAmount)
	assert.Equal(t, 0, f.books.stockOf(bookID))

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Clean Code", order.Items[0].Title)
	assert.Equal(t, int64(1020), order.Items[0].Price)

	assert.Equal(t, f.addrID, order.AddressDetails.ID)
	assert.Equal(t, []string{"order.created"}, f.feed.types())
	assert.Equal(t, []string{"created"}, f.trail.actions)
}

func TestCreateOrderSnapshotsInlineAddress(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)

	order, err := f.svc.Create(context.Background(), f.userID.Hex(), CreateOrderInput{
		Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 1}},
		Address:       &models.Address{Name: "Ravi", Mobile: "8888888888", Address: "4 FC Road", City: "Pune", State: "MH"},
		PaymentMethod: models.PaymentUPI,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ravi", order.AddressDetails.Name)
	assert.Equal(t, "4 FC Road", order.AddressDetails.Address)
	assert.Equal(t, 1, f.books.stockOf(bookID))
}

func TestCreateOrderIgnoresAvailabilityFlag(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.books.add(models.Book{Title: "Out of print", Author: "someone", Price: 500, Stock: 3, Availability: false})

	// availability is informational; only stock gates checkout
	order := f.placeOrder(t, bookID, 1)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 2, f.books.stockOf(bookID))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)

	f.placeOrder(t, bookID, 2) // drains the stock

	_, err := f.svc.Create(context.Background(), f.userID.Hex(), CreateOrderInput{
		Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 1}},
		AddressID:     f.addrID,
		PaymentMethod: models.PaymentCard,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
	assert.Equal(t, 0, f.books.stockOf(bookID))
}

func TestCreateOrderCompensatesPartialDecrement(t *testing.T) {
	f := newOrderFixture(t)
	first := f.addBook("First", 100, 5)
	second := f.addBook("Second", 200, 5)

	// the second line loses the stock race after the first succeeded
	f.books.failDecrementFor[second] = true

	_, err := f.svc.Create(context.Background(), f.userID.Hex(), CreateOrderInput{
		Items: []OrderLine{
			{BookID: first.Hex(), Quantity: 3},
			{BookID: second.Hex(), Quantity: 1},
		},
		AddressID:     f.addrID,
		PaymentMethod: models.PaymentUPI,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	assert.Equal(t, 5, f.books.stockOf(first), "taken stock must be given back")
	assert.Equal(t, 5, f.books.stockOf(second))
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderCompensatesWhenPersistFails(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 4)
	f.orders.failCreate = true

	_, err := f.svc.Create(context.Background(), f.userID.Hex(), CreateOrderInput{
		Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 3}},
		AddressID:     f.addrID,
		PaymentMethod: models.PaymentCard,
	})
	require.Error(t, err)
	assert.Equal(t, 4, f.books.stockOf(bookID))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 5)

	cases := []struct {
		name string
		in   CreateOrderInput
	}{
		{"no items", CreateOrderInput{AddressID: f.addrID, PaymentMethod: models.PaymentCard}},
		{"no address", CreateOrderInput{
			Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 1}},
			PaymentMethod: models.PaymentCard,
		}},
		{"bad payment method", CreateOrderInput{
			Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 1}},
			AddressID:     f.addrID,
			PaymentMethod: "Barter",
		}},
		{"unknown address", CreateOrderInput{
			Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 1}},
			AddressID:     "nope",
			PaymentMethod: models.PaymentCard,
		}},
		{"zero quantity", CreateOrderInput{
			Items:         []OrderLine{{BookID: bookID.Hex(), Quantity: 0}},
			AddressID:     f.addrID,
			PaymentMethod: models.PaymentCard,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.userID.Hex(), tc.in)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}

	assert.Equal(t, 5, f.books.stockOf(bookID), "rejected orders must not touch stock")
}

func TestCancelRestoresStockFromPendingOnly(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)
	order := f.placeOrder(t, bookID, 2)

	cancelled, err := f.svc.Cancel(context.Background(), f.userID.Hex(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 2, f.books.stockOf(bookID))

	// a cancelled order cannot be cancelled again
	_, err = f.svc.Cancel(context.Background(), f.userID.Hex(), order.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestOrderStockChangesDropCatalogueCache(t *testing.T) {
	var dropped []string
	orig := cacheDel
	cacheDel = func(keys ...string) error {
		dropped = append(dropped, keys...)
		return nil
	}
	defer func() { cacheDel = orig }()

	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)

	order := f.placeOrder(t, bookID, 1)
	assert.Contains(t, dropped, bookListKey)
	assert.Contains(t, dropped, bookKeyPrefix+bookID.Hex())

	// the cancel restock must invalidate too
	dropped = nil
	_, err := f.svc.Cancel(context.Background(), f.userID.Hex(), order.ID.Hex())
	require.NoError(t, err)
	assert.Contains(t, dropped, bookListKey)
	assert.Contains(t, dropped, bookKeyPrefix+bookID.Hex())
}

func TestCancelRequiresOwnership(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)
	order := f.placeOrder(t, bookID, 1)

	stranger := f.users.add(models.User{Username: "ravi", Email: "ravi@example.com", Role: models.RoleUser})

	_, err := f.svc.Cancel(context.Background(), stranger.Hex(), order.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestSetStatusStampsDeliveredAt(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)
	order := f.placeOrder(t, bookID, 1)

	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	updated, err := f.svc.SetStatus(context.Background(), order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.Equal(t, fixed, *updated.DeliveredAt)

	// a second pass must not move the stamp
	f.svc.now = func() time.Time { return fixed.Add(48 * time.Hour) }
	again, err := f.svc.SetStatus(context.Background(), order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, fixed, *again.DeliveredAt)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)
	order := f.placeOrder(t, bookID, 1)

	_, err := f.svc.SetStatus(context.Background(), order.ID.Hex(), models.Status("Teleported"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func deliveredOrder(t *testing.T, f *orderFixture, deliveredAgo time.Duration) *models.Order {
	t.Helper()
	bookID := f.addBook("Clean Code", 1020, 3)
	order := f.placeOrder(t, bookID, 1)

	delivered := time.Now().UTC().Add(-deliveredAgo)
	f.svc.now = func() time.Time { return delivered }
	order, err := f.svc.SetStatus(context.Background(), order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)

	f.svc.now = time.Now
	return order
}

func TestRequestReturnWithinWindow(t *testing.T) {
	f := newOrderFixture(t)
	order := deliveredOrder(t, f, 2*24*time.Hour)

	updated, err := f.svc.RequestReturn(context.Background(), f.userID.Hex(), order.ID.Hex(), "damaged spine")
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRequested, updated.ReturnStatus)
	assert.Equal(t, "damaged spine", updated.ReturnReason)
	require.NotNil(t, updated.ReturnRequestDate)
}

func TestRequestReturnRejectsExpiredWindow(t *testing.T) {
	f := newOrderFixture(t)
	order := deliveredOrder(t, f, 8*24*time.Hour)

	_, err := f.svc.RequestReturn(context.Background(), f.userID.Hex(), order.ID.Hex(), "changed my mind")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestRequestReturnGuards(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 3)
	pending := f.placeOrder(t, bookID, 1)

	// blank reason
	_, err := f.svc.RequestReturn(context.Background(), f.userID.Hex(), pending.ID.Hex(), "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// not delivered yet
	_, err = f.svc.RequestReturn(context.Background(), f.userID.Hex(), pending.ID.Hex(), "reason")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))

	// already requested
	delivered := deliveredOrder(t, f, time.Hour)
	_, err = f.svc.RequestReturn(context.Background(), f.userID.Hex(), delivered.ID.Hex(), "first")
	require.NoError(t, err)
	_, err = f.svc.RequestReturn(context.Background(), f.userID.Hex(), delivered.ID.Hex(), "second")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestReturnFlowApproveAndComplete(t *testing.T) {
	f := newOrderFixture(t)
	order := deliveredOrder(t, f, time.Hour)
	bookID := order.Items[0].BookID

	_, err := f.svc.RequestReturn(context.Background(), f.userID.Hex(), order.ID.Hex(), "wrong edition")
	require.NoError(t, err)

	stockBefore := f.books.stockOf(bookID)

	approved, err := f.svc.ResolveReturn(context.Background(), order.ID.Hex(), true)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnApproved, approved.ReturnStatus)

	done, err := f.svc.CompleteReturn(context.Background(), f.userID.Hex(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.ReturnReturned, done.ReturnStatus)
	assert.Equal(t, stockBefore+1, f.books.stockOf(bookID))
}

func TestReturnFlowReject(t *testing.T) {
	f := newOrderFixture(t)
	order := deliveredOrder(t, f, time.Hour)

	_, err := f.svc.RequestReturn(context.Background(), f.userID.Hex(), order.ID.Hex(), "reason")
	require.NoError(t, err)

	rejected, err := f.svc.ResolveReturn(context.Background(), order.ID.Hex(), false)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRejected, rejected.ReturnStatus)

	// rejected returns cannot be completed
	_, err = f.svc.CompleteReturn(context.Background(), f.userID.Hex(), order.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestResolveReturnNeedsPendingRequest(t *testing.T) {
	f := newOrderFixture(t)
	order := deliveredOrder(t, f, time.Hour)

	_, err := f.svc.ResolveReturn(context.Background(), order.ID.Hex(), true)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestGetEnforcesOwnershipUnlessAdmin(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 2)
	order := f.placeOrder(t, bookID, 1)

	stranger := f.users.add(models.User{Username: "ravi", Email: "ravi@example.com", Role: models.RoleUser})

	_, err := f.svc.Get(context.Background(), stranger.Hex(), false, order.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	got, err := f.svc.Get(context.Background(), stranger.Hex(), true, order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestListAllDenormalisesBuyer(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 5)
	f.placeOrder(t, bookID, 1)

	all, err := f.svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "asha", all[0].Username)
	assert.Equal(t, "asha@example.com", all[0].Email)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	bookID := f.addBook("Clean Code", 1020, 5)
	order := f.placeOrder(t, bookID, 2)

	require.NoError(t, f.svc.Delete(context.Background(), order.ID.Hex()))

	// hard delete: no stock restore
	assert.Equal(t, 3, f.books.stockOf(bookID))

	_, err := f.svc.Get(context.Background(), f.userID.Hex(), true, order.ID.Hex())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
