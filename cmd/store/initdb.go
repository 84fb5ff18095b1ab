package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/toxidity-18/GLAM-BACKEND/internal/config"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

func initDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the store schema",
		Long:  `init-db creates every table and index the API needs. It is safe to run more than once.`,
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
			log.Println("✅ Database initialized")
			return nil
		},
	}
}
