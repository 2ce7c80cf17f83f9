// Package routes wires the HTTP surface: the public catalogue, the
// authenticated account/order/payment endpoints, the admin-only
// management endpoints, and the supplementary surfaces (metrics,
// GraphQL, the admin WebSocket feed).
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/pustak/app/controllers"
	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/pkg/metrics"
	"github.com/shashiranjanraj/pustak/pkg/middleware"
	"github.com/shashiranjanraj/pustak/pkg/router"
)

// Controllers bundles everything the route table mounts.
type Controllers struct {
	Auth    *controllers.AuthController
	Books   *controllers.BookController
	Orders  *controllers.OrderController
	Payment *controllers.PaymentController

	GraphQL http.HandlerFunc
	Feed    http.Handler

	Resolver middleware.RoleResolver
}

// Register mounts the full route table on r.
func Register(r *router.Router, c Controllers) {
	authed := middleware.Authenticate(c.Resolver)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r.Get("/metrics", "metrics", metrics.Handler())

	if c.GraphQL != nil {
		r.Post("/graphql", "graphql", c.GraphQL)
	}

	api := r.Group("/api")

	// Public catalogue reads and account entry points.
	api.Get("/books", "books.list", c.Books.List)
	api.Get("/books/{id}", "books.get", c.Books.Get)
	api.Post("/auth/register", "auth.register", c.Auth.Register)
	api.Post("/auth/login", "auth.login", c.Auth.Login)
	api.Post("/auth/reset-password", "auth.reset", c.Auth.ResetPassword)

	// Authenticated account endpoints.
	auth := api.Group("/auth", authed)
	auth.Get("/profile", "auth.profile", c.Auth.Profile)
	auth.Get("/addresses", "auth.addresses.list", c.Auth.ListAddresses)
	auth.Post("/addresses", "auth.addresses.add", c.Auth.AddAddress)
	auth.Put("/addresses/{addressId}", "auth.addresses.update", c.Auth.UpdateAddress)
	auth.Delete("/addresses/{addressId}", "auth.addresses.delete", c.Auth.DeleteAddress)
	auth.Put("/promote/{userId}", "auth.promote", c.Auth.Promote, adminOnly)

	// Catalogue management (admin) and reviews (any authenticated user).
	books := api.Group("/books", authed)
	books.Post("/", "books.create", c.Books.Create, adminOnly)
	books.Put("/{id}", "books.update", c.Books.Update, adminOnly)
	books.Delete("/{id}", "books.delete", c.Books.Delete, adminOnly)
	books.Post("/{id}/cover", "books.cover", c.Books.UploadCover, adminOnly)
	books.Post("/{id}/reviews", "books.review", c.Books.AddReview)

	// Orders.
	orders := api.Group("/orders", authed)
	orders.Post("/", "orders.create", c.Orders.Create)
	orders.Get("/user/myorders", "orders.mine", c.Orders.ListMine)
	orders.Get("/admin/all", "orders.all", c.Orders.ListAll, adminOnly)
	orders.Get("/{id}", "orders.get", c.Orders.Get)
	orders.Put("/{id}/cancel", "orders.cancel", c.Orders.Cancel)
	orders.Put("/{id}/return-request", "orders.return.request", c.Orders.RequestReturn)
	orders.Put("/{id}/return-complete", "orders.return.complete", c.Orders.CompleteReturn)
	orders.Put("/{id}/return/{action}", "orders.return.resolve", c.Orders.ResolveReturn, adminOnly)
	orders.Put("/{id}", "orders.status", c.Orders.SetStatus, adminOnly)
	orders.Delete("/{id}", "orders.delete", c.Orders.Delete, adminOnly)

	// Payments.
	pay := api.Group("/payment", authed)
	pay.Post("/create-payment-intent", "payment.intent", c.Payment.CreateIntent)
	pay.Post("/confirm-payment", "payment.confirm", c.Payment.Confirm)

	// Realtime admin order feed.
	if c.Feed != nil {
		r.Get("/ws/admin/orders", "ws.orders", c.Feed.ServeHTTP, authed, adminOnly)
	}
}
