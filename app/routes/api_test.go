package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pustak/app/controllers"
	"github.com/shashiranjanraj/pustak/app/repositories"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/router"
)

// testRouter wires the route table over never-called repositories, the
// same trick the route:list command uses.
func testRouter(t *testing.T) *router.Router {
	t.Helper()

	catalog := services.NewCatalogService(repositories.NewBookRepository(nil))
	accounts := services.NewAccountService(repositories.NewUserRepository(nil))
	orderRepo := repositories.NewOrderRepository(nil)
	orders := services.NewOrderService(orderRepo, repositories.NewBookRepository(nil), repositories.NewUserRepository(nil), nil, nil, 0)
	payments := services.NewPaymentService(orderRepo, nil, "inr")

	r := router.New()
	Register(r, Controllers{
		Auth:     controllers.NewAuthController(accounts),
		Books:    controllers.NewBookController(catalog),
		Orders:   controllers.NewOrderController(orders),
		Payment:  controllers.NewPaymentController(payments),
		Resolver: accounts,
	})
	return r
}

func TestRouteTableCoversTheAPISurface(t *testing.T) {
	r := testRouter(t)

	want := map[string]string{
		"metrics":                "/metrics",
		"books.list":             "/api/books",
		"books.get":              "/api/books/{id}",
		"books.create":           "/api/books",
		"books.update":           "/api/books/{id}",
		"books.delete":           "/api/books/{id}",
		"books.cover":            "/api/books/{id}/cover",
		"books.review":           "/api/books/{id}/reviews",
		"auth.register":          "/api/auth/register",
		"auth.login":             "/api/auth/login",
		"auth.reset":             "/api/auth/reset-password",
		"auth.profile":           "/api/auth/profile",
		"auth.addresses.list":    "/api/auth/addresses",
		"auth.addresses.add":     "/api/auth/addresses",
		"auth.addresses.update":  "/api/auth/addresses/{addressId}",
		"auth.addresses.delete":  "/api/auth/addresses/{addressId}",
		"auth.promote":           "/api/auth/promote/{userId}",
		"orders.create":          "/api/orders",
		"orders.mine":            "/api/orders/user/myorders",
		"orders.all":             "/api/orders/admin/all",
		"orders.get":             "/api/orders/{id}",
		"orders.cancel":          "/api/orders/{id}/cancel",
		"orders.status":          "/api/orders/{id}",
		"orders.delete":          "/api/orders/{id}",
		"orders.return.request":  "/api/orders/{id}/return-request",
		"orders.return.resolve":  "/api/orders/{id}/return/{action}",
		"orders.return.complete": "/api/orders/{id}/return-complete",
		"payment.intent":         "/api/payment/create-payment-intent",
		"payment.confirm":        "/api/payment/confirm-payment",
	}

	for name, path := range want {
		got, ok := r.Path(name)
		require.True(t, ok, "route %q missing", name)
		assert.Equal(t, path, got, name)
	}
}

func TestProtectedRoutesRejectAnonymousCallers(t *testing.T) {
	r := testRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders/user/myorders"},
		{http.MethodPost, "/api/payment/create-payment-intent"},
		{http.MethodPost, "/api/books"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}
