package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driven/api"
	sqliteadapter "github.com/ericfisherdev/smartqpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/smartqpanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required settings).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))
	slog.Info("config loaded",
		"api_base_url", cfg.APIBaseURL,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"request_timeout", cfg.RequestTimeout,
	)

	key, err := cfg.EncryptionKey()
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	if version, dirty, err := sqliteadapter.SchemaVersion(db.Writer); err != nil {
		slog.Warn("failed to read schema version", "error", err)
	} else {
		slog.Info("migrations complete", "schema_version", version, "dirty", dirty)
	}

	// 5. Wire stores and the credential provider.
	credentialStore := sqliteadapter.NewCredentialRepo(db, key)
	settingsStore := sqliteadapter.NewSettingsRepo(db)
	if key == nil {
		slog.Warn("SMARTQ_SECRET_KEY not set, credentials will not survive a restart")
	}
	creds := application.NewCredentials(credentialStore, slog.Default())

	// 6. Create the upstream API client.
	client, err := api.NewClient(cfg.APIBaseURL, creds, cfg.RequestTimeout, slog.Default())
	if err != nil {
		return err
	}

	// 7. Create services and restore the previous session.
	sessionSvc := application.NewSessionService(client, creds, settingsStore, slog.Default())
	client.OnSessionExpired(func() {
		sessionSvc.Expire(context.Background())
	})
	if err := sessionSvc.Restore(ctx); err != nil {
		slog.Warn("failed to restore session", "error", err)
	}
	catalog := application.NewCatalog(client, slog.Default())
	dashboardSvc := application.NewDashboardService(client, slog.Default())

	// 7.5. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(db.Reader, sessionSvc, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 7.6. Create web handler and register GUI routes.
	webHandler := webhandler.NewHandler(sessionSvc, catalog, dashboardSvc, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	// 8. Log startup complete.
	info := sessionSvc.Current()
	slog.Info("smartqpanel started",
		"listen_addr", cfg.ListenAddr,
		"signed_in", info.SignedIn(),
		"durable_credentials", info.Durable,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	// 11. Log shutdown complete.
	slog.Info("shutdown complete")
	return nil
}
