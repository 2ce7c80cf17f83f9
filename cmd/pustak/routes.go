package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/pustak/app/controllers"
	"github.com/shashiranjanraj/pustak/app/graph"
	"github.com/shashiranjanraj/pustak/app/repositories"
	"github.com/shashiranjanraj/pustak/app/routes"
	"github.com/shashiranjanraj/pustak/app/services"
	"github.com/shashiranjanraj/pustak/pkg/payment"
	"github.com/shashiranjanraj/pustak/pkg/router"
)

// routeListCmd prints the route table without touching MongoDB: the
// repositories are constructed but never called.
func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "Print the registered routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := services.NewCatalogService(repositories.NewBookRepository(nil))
			accounts := services.NewAccountService(repositories.NewUserRepository(nil))
			orderRepo := repositories.NewOrderRepository(nil)
			orders := services.NewOrderService(orderRepo, repositories.NewBookRepository(nil), repositories.NewUserRepository(nil), nil, nil, 0)
			payments := services.NewPaymentService(orderRepo, payment.NewStripe(""), "inr")

			schema, err := graph.NewSchema(catalog)
			if err != nil {
				return err
			}

			r := router.New()
			routes.Register(r, routes.Controllers{
				Auth:     controllers.NewAuthController(accounts),
				Books:    controllers.NewBookController(catalog),
				Orders:   controllers.NewOrderController(orders),
				Payment:  controllers.NewPaymentController(payments),
				GraphQL:  graph.Handler(schema),
				Resolver: accounts,
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, route := range r.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", route.Method, route.Path, route.Name)
			}
			return w.Flush()
		},
	}
}
