package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/spf13/cobra"

	"fintrack-server/src/api"
	"fintrack-server/src/config"
	"fintrack-server/src/db"
	fintrackplaid "fintrack-server/src/plaid"
	"fintrack-server/src/projection"
)

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, !skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB connection failed: %w", err)
	}
	defer pool.Close()

	if migrate {
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			return err
		}
	}

	cache, err := db.NewCache(cfg.CacheMaxCost)
	if err != nil {
		return err
	}
	defer cache.Close()

	presets := projection.DefaultPresets()
	if cfg.ScenariosFile != "" {
		if presets, err = projection.LoadPresets(cfg.ScenariosFile); err != nil {
			return err
		}
		log.Printf("INFO: Loaded scenario presets from %s", cfg.ScenariosFile)
	}

	var plaidClient *plaid.APIClient
	if cfg.PlaidEnabled() {
		if plaidClient, err = fintrackplaid.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv); err != nil {
			return err
		}
		log.Printf("INFO: Plaid enabled (%s)", cfg.PlaidEnv)
	} else {
		log.Println("INFO: Plaid credentials not set, banking routes disabled")
	}

	// Router
	router := api.NewRouter(api.Deps{
		Pool:           pool,
		Cache:          cache,
		PlaidClient:    plaidClient,
		Presets:        presets,
		JWTSecret:      []byte(cfg.JWTSecret),
		DemoMode:       cfg.DemoMode,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("API server running on port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("INFO: Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
