// Command pustak is the bookstore backend: an HTTP API server plus the
// operational subcommands (seeding, admin bootstrap, route listing).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pustak",
		Short: "Pustak online bookstore backend",
	}

	root.AddCommand(
		serveCmd(),
		seedCmd(),
		adminCreateCmd(),
		routeListCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
