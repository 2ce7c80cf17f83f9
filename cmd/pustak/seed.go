package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/pustak/config"
	"github.com/shashiranjanraj/pustak/database/seeders"
	"github.com/shashiranjanraj/pustak/pkg/database"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter catalogue into MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}

			ctx := context.Background()
			if err := database.Connect(ctx); err != nil {
				return err
			}
			defer database.Disconnect(ctx) //nolint:errcheck

			return seeders.SeedBooks(ctx, database.Books())
		},
	}
}
