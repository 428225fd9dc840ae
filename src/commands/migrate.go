package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"fintrack-server/src/config"
	"fintrack-server/src/db"
)

func newMigrateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := db.Migrations()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}

			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("DB connection failed: %w", err)
			}
			defer pool.Close()

			if err := db.ApplyMigrations(cmd.Context(), pool); err != nil {
				return err
			}
			log.Println("INFO: Migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migrations without connecting")

	return cmd
}
