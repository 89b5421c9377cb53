package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driven/api"
	sqliteadapter "github.com/ericfisherdev/smartqpanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/config"
)

// Backend bundles the application services a command works with.
type Backend struct {
	Session   *application.SessionService
	Catalog   *application.Catalog
	Dashboard *application.DashboardService

	close func() error
}

// Close releases the database.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBackend wires the same stores, credential provider and API client as
// the panel, so a CLI sign-in is shared with the panel through the database.
func openBackend(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	creds := application.NewCredentials(sqliteadapter.NewCredentialRepo(db, key), logger)
	client, err := api.NewClient(cfg.APIBaseURL, creds, cfg.RequestTimeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	session := application.NewSessionService(client, creds, sqliteadapter.NewSettingsRepo(db), logger)
	client.OnSessionExpired(func() { session.Expire(context.Background()) })
	if err := session.Restore(ctx); err != nil {
		logger.Warn("failed to restore session", "error", err)
	}

	return &Backend{
		Session:   session,
		Catalog:   application.NewCatalog(client, logger),
		Dashboard: application.NewDashboardService(client, logger),
		close:     db.Close,
	}, nil
}
