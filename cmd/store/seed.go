package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/config"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
	"github.com/toxidity-18/GLAM-BACKEND/internal/identity"
)

type seedAccount struct {
	name, email, phone, password string
	admin                        bool
}

var seedAccounts = []seedAccount{
	{"Manu", "manu@glam.test", "0700000000", "admin123", true},
	{"Philip", "philip@glam.test", "0700000001", "customer123", false},
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo admin and customer accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			pool, err := database.Connect(cmd.Context(), cfg.DB)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}

			// Seeding never issues tokens.
			issuer := auth.NewTokenIssuer("seed", cfg.Auth.TokenTTL)
			users := identity.NewUserUseCase(identity.NewUserRepository(pool), issuer, cfg.Auth.BcryptCost)

			for _, a := range seedAccounts {
				isAdmin := a.admin
				user, err := users.CreateAccount(cmd.Context(), &auth.System, identity.CreateUserRequest{
					Name:     a.name,
					Email:    a.email,
					Phone:    a.phone,
					Password: a.password,
					IsAdmin:  &isAdmin,
				})
				switch {
				case errors.Is(err, identity.ErrDuplicateEmail), errors.Is(err, identity.ErrDuplicatePhone):
					log.Printf("ℹ️ [SEED] %s already exists", a.email)
				case err != nil:
					return fmt.Errorf("failed to seed %s: %w", a.email, err)
				default:
					log.Printf("✅ [SEED] %s (%s) admin=%t", user.Email, user.ID, user.IsAdmin)
				}
			}
			return nil
		},
	}
}
