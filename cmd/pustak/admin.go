package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/pustak/app/models"
	"github.com/shashiranjanraj/pustak/app/repositories"
	"github.com/shashiranjanraj/pustak/config"
	"github.com/shashiranjanraj/pustak/pkg/auth"
	"github.com/shashiranjanraj/pustak/pkg/database"
)

// adminCreateCmd bootstraps the first admin account. Registration over
// HTTP always produces plain users, so this is the way in.
func adminCreateCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "admin:create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" {
				return errors.New("username and email are required")
			}
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}

			if err := config.Load(); err != nil {
				return err
			}

			ctx := context.Background()
			if err := database.Connect(ctx); err != nil {
				return err
			}
			defer database.Disconnect(ctx) //nolint:errcheck

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			user := &models.User{
				Username: username,
				Email:    email,
				Password: hash,
				Role:     models.RoleAdmin,
			}

			repo := repositories.NewUserRepository(database.Users())
			if err := repo.Create(ctx, user); err != nil {
				return err
			}

			fmt.Printf("admin %q created (%s)\n", username, user.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")

	return cmd
}
