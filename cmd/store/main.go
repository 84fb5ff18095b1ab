package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "store",
		Short: "GLAM store backend",
		Long: `store runs the GLAM e-commerce API: accounts, catalog, carts, orders
and the payment ledger, backed by PostgreSQL.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		initDBCommand(),
		seedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
