package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/keystone/internal/auth/http"
	"github.com/aussiebroadwan/keystone/internal/auth/service"
	"github.com/aussiebroadwan/keystone/internal/auth/store"
	"github.com/aussiebroadwan/keystone/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/keystone/pkg/cryptox"
	"github.com/aussiebroadwan/keystone/pkg/jwtx"
	"github.com/aussiebroadwan/keystone/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	codec     *jwtx.Codec
	passwords *cryptox.PasswordPolicy

	// Services
	authService         *service.AuthService
	apiKeyService       *service.APIKeyService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "keystone-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	passwords, err := InitPasswordPolicy(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize password policy: %w", err)
	}
	app.passwords = passwords

	codec, err := InitTokenCodec(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec
	app.logger.Info("token codec ready", sessionSummary(cfg)...)

	app.initServices()

	if err := app.bootstrap(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		slog.Int("port", app.cfg.Port),
		slog.String("mode", app.cfg.Mode),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slog.Any("error", err))
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the store and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", slog.String("file", app.cfg.DatabaseFile))
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:     app.db,
		Passwords: app.passwords,
		Tokens:    app.codec,
	}
	app.apiKeyService = &service.APIKeyService{
		Store:  app.db,
		Env:    app.cfg.Env,
		Secure: app.cfg.Secure(),
		Now:    time.Now,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:     app.db,
		Passwords: app.passwords,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	if !app.cfg.Secure() {
		app.logger.Warn("running in insecure mode, X-API-Key is not checked")
	}
}

// bootstrap seeds an empty database when an admin email is configured.
// A generated admin password is logged exactly once, here.
func (app *Application) bootstrap(ctx context.Context) error {
	done, err := app.bootstrapService.IsBootstrapped(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap state: %w", err)
	}
	if done {
		return nil
	}
	if app.cfg.BootstrapAdminEmail == "" {
		app.logger.Warn("database is empty and BOOTSTRAP_ADMIN_EMAIL is not set, nobody can log in")
		return nil
	}

	res, err := app.bootstrapService.Bootstrap(ctx, domain.BootstrapData{
		AdminEmail:       app.cfg.BootstrapAdminEmail,
		AdminDisplayName: app.cfg.BootstrapAdminName,
		AdminPassword:    app.cfg.BootstrapAdminPassword,
		Permissions:      domain.DefaultPermissions(),
		Roles:            domain.DefaultRoles(),
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	attrs := []any{
		slog.String("admin_user_id", res.AdminUserID),
		slog.String("admin_email", app.cfg.BootstrapAdminEmail),
	}
	if res.GeneratedPassword != "" {
		attrs = append(attrs, slog.String("generated_password", res.GeneratedPassword))
	}
	app.logger.Info("bootstrap complete", attrs...)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec.For(jwtx.KindAccess),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.APIKeyService = app.apiKeyService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
