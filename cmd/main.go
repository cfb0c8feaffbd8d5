package main

import (
	"ClinicDesk/cache"
	"ClinicDesk/config"
	"ClinicDesk/database"
	"ClinicDesk/repositories"
	"ClinicDesk/routes"
	"ClinicDesk/services"
	"ClinicDesk/utils"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicdesk",
		Short: "Clinic front-desk API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(facilityCmd())
	rootCmd.AddCommand(staffCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and opens the logger and database.
func bootstrap(ctx context.Context) (*config.AppConfig, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	db, err := database.InitDB(ctx, cfg.DBURL, cfg.IsDevelopment(), log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func facilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facility",
		Short: "Manage facilities",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new facility",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req services.CreateFacilityRequest
			req.Name, _ = cmd.Flags().GetString("name")
			req.Code, _ = cmd.Flags().GetString("code")
			req.Address, _ = cmd.Flags().GetString("address")
			req.Phone, _ = cmd.Flags().GetString("phone")
			req.Email, _ = cmd.Flags().GetString("email")

			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			svc := services.NewFacilityService(repositories.NewUnitOfWork(db), log)
			facility, err := svc.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Facility %s created with id %s\n", facility.Code, facility.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Facility name")
	createCmd.Flags().String("code", "", "Unique facility code")
	createCmd.Flags().String("address", "", "Postal address")
	createCmd.Flags().String("phone", "", "Contact phone")
	createCmd.Flags().String("email", "", "Contact email")

	cmd.AddCommand(createCmd)
	return cmd
}

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator for a facility",
		RunE: func(cmd *cobra.Command, args []string) error {
			facilityCode, _ := cmd.Flags().GetString("facility-code")
			if facilityCode == "" {
				return errors.New("--facility-code is required")
			}
			var req services.RegisterStaffRequest
			req.Email, _ = cmd.Flags().GetString("email")
			req.Password, _ = cmd.Flags().GetString("password")
			req.FirstName, _ = cmd.Flags().GetString("first-name")
			req.LastName, _ = cmd.Flags().GetString("last-name")

			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			svc := services.NewAuthService(repositories.NewUnitOfWork(db), cache.New(nil), nil, log)
			user, err := svc.CreateAdmin(cmd.Context(), facilityCode, req)
			if err != nil {
				return err
			}
			fmt.Printf("Admin %s created with id %s\n", user.Email, user.ID)
			return nil
		},
	}
	createAdminCmd.Flags().String("facility-code", "", "Code of the facility the admin belongs to")
	createAdminCmd.Flags().String("email", "", "Login email")
	createAdminCmd.Flags().String("password", "", "Initial password")
	createAdminCmd.Flags().String("first-name", "", "First name")
	createAdminCmd.Flags().String("last-name", "", "Last name")

	cmd.AddCommand(createAdminCmd)
	return cmd
}

func runServer(ctx context.Context) error {
	cfg, log, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := cfg.RequireSymmetricKey(); err != nil {
		return err
	}
	tokens, err := utils.NewTokenMaker(cfg.SymmetricKey, cfg.TokenExpiry)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		redisClient, err = database.NewRedisClient(ctx, database.LoadRedisConfig(cfg.RedisAddress), log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, caching and distributed locks disabled")
	}

	mailer := utils.NewMailer(cfg.SMTP)
	if !mailer.Enabled() {
		log.Warn("SMTP_HOST not set, payment receipts disabled")
	}

	var background sync.WaitGroup
	handler := routes.SetupRoutes(routes.Dependencies{
		Config:     cfg,
		DB:         db,
		Cache:      cache.New(redisClient),
		Tokens:     tokens,
		Mailer:     mailer,
		Log:        log,
		Background: &background,
	})

	srv := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
	case <-quit:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Receipts queued by the last requests are still being sent.
	drained := make(chan struct{})
	go func() {
		background.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		log.Warn("shutdown timeout reached, unsent payment receipts dropped")
	}
	log.Info("server exited properly")
	return nil
}
