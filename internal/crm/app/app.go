package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/abodyssee/crm/internal/crm/http"
	"github.com/abodyssee/crm/internal/crm/mail"
	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/internal/crm/session"
	"github.com/abodyssee/crm/internal/crm/store"
	"github.com/abodyssee/crm/internal/crm/store/dbadapter"
	"github.com/abodyssee/crm/internal/crm/store/schema"
	"github.com/abodyssee/crm/internal/crm/store/sqlstore"
	"github.com/abodyssee/crm/pkg/cryptox"
	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/abodyssee/crm/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the CRM service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       *sqlstore.Store
	sessions store.Sessions
	closer   io.Closer // redis client, nil otherwise
	manager  *session.Manager
	files    *httpapi.FileResolver
	metrics  *httpapi.Metrics

	// Services
	authService         *service.AuthService
	clientService       *service.ClientService
	exchangeService     *service.ExchangeService
	contactService      *service.ContactService
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
			Service: "crm",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initSessions(ctx); err != nil {
		_ = app.closeStores()
		return nil, err
	}
	if err := app.bootstrapAdmin(ctx); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	app.initServices()

	if err := app.initHTTP(); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("crm service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"login_path", app.cfg.LoginPath,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down crm service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		app.logger.Error("error closing stores", "error", err)
		return err
	}

	app.logger.Info("crm service stopped")
	return nil
}

// closeStores releases the file root, the redis client and the database.
// Closing the SQLite store checkpoints its write-ahead log first.
func (app *Application) closeStores() error {
	var errs []error
	if app.files != nil {
		errs = append(errs, app.files.Close())
	}
	if app.closer != nil {
		errs = append(errs, app.closer.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

// initDatabase connects to PostgreSQL or SQLite and ensures the schema
func (app *Application) initDatabase(ctx context.Context) error {
	adapter, err := dbadapter.Open(ctx, dbadapter.Config{
		URL:     app.cfg.DatabaseURL,
		File:    app.cfg.DatabaseFile,
		SSLMode: app.cfg.DatabaseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if app.cfg.DatabaseURL != "" {
		app.logger.Info("database connected", "engine", "postgres", "url", dbadapter.MaskURL(app.cfg.DatabaseURL))
	} else {
		app.logger.Info("database connected", "engine", "sqlite", "file", app.cfg.DatabaseFile)
	}

	if err := schema.Ensure(ctx, adapter, app.logger); err != nil {
		_ = adapter.Close()
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

	app.db = sqlstore.New(adapter)
	app.logger.Info("database schema ready")
	return nil
}

// initSessions picks the session backend and builds the cookie manager.
func (app *Application) initSessions(ctx context.Context) error {
	switch app.cfg.SessionStore {
	case SessionStoreMemory:
		app.sessions = session.NewMemoryStore()
	case SessionStoreRedis:
		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect session store: %w", err)
		}
		app.sessions = rs
		app.closer = rs
	default:
		app.sessions = app.db.Sessions()
	}
	app.logger.Info("session store ready", "store", app.cfg.SessionStore)

	secret := app.cfg.SessionSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		app.logger.Warn("SESSION_SECRET is not set, using a random secret; sessions will not survive a restart")
	}

	previous := make([][]byte, 0, len(app.cfg.SessionPreviousSecrets))
	for _, s := range app.cfg.SessionPreviousSecrets {
		previous = append(previous, []byte(s))
	}

	manager, err := session.NewManager(session.Config{
		CookieName:      app.cfg.SessionCookieName,
		TTL:             app.cfg.SessionTTL,
		Secure:          app.cfg.IsProduction(),
		Secret:          []byte(secret),
		PreviousSecrets: previous,
	}, app.sessions)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	app.manager = manager
	return nil
}

// bootstrapAdmin creates the configured admin account on first start.
func (app *Application) bootstrapAdmin(ctx context.Context) error {
	if app.cfg.BootstrapAdminUsername == "" {
		return nil
	}

	bootstrap := &service.BootstrapService{Store: app.db}
	err := bootstrap.EnsureAdmin(slogx.WithContext(ctx, app.logger), service.BootstrapAdmin{
		Username: app.cfg.BootstrapAdminUsername,
		Password: app.cfg.BootstrapAdminPassword,
		Email:    app.cfg.BootstrapAdminEmail,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{Store: app.db}
	app.clientService = &service.ClientService{Store: app.db}
	app.exchangeService = &service.ExchangeService{Store: app.db}
	app.contactService = &service.ContactService{}

	if app.cfg.BrevoAPIKey != "" {
		app.contactService.Mailer = mail.NewBrevoClient(mail.BrevoConfig{
			APIKey:      app.cfg.BrevoAPIKey,
			APIURL:      app.cfg.BrevoAPIURL,
			Recipient:   app.cfg.ContactEmailTo,
			SenderEmail: app.cfg.ContactEmailFrom,
			SenderName:  app.cfg.ContactEmailFromName,
			Location:    app.location(),
		})
		app.logger.Info("contact mailer enabled", "provider", "brevo", "recipient", app.cfg.ContactEmailTo)
	} else {
		app.logger.Warn("BREVO_API_KEY is not set, the contact form will answer 503")
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) location() *time.Location {
	loc, err := time.LoadLocation(app.cfg.ContactTimezone)
	if err != nil {
		app.logger.Warn("unknown contact timezone, using UTC", "timezone", app.cfg.ContactTimezone, "error", err)
		return time.UTC
	}
	return loc
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	files, err := httpapi.NewFileResolver(app.cfg.PrivateDir)
	if err != nil {
		return fmt.Errorf("failed to open private directory: %w", err)
	}
	app.files = files

	if app.cfg.MetricsEnabled {
		app.metrics = httpapi.NewMetrics()
	}

	router := httpapi.NewRouter(
		httpapi.Config{
			BuildVersion:     BuildVersion,
			LoginPath:        app.cfg.LoginPath,
			PublicDir:        app.cfg.PublicDir,
			Production:       app.cfg.IsProduction(),
			TrustedProxyHops: app.cfg.TrustedProxyHops,
			CORS: httpx.CORSConfig{
				AllowedOrigins:      app.cfg.AllowedOrigins,
				AllowPrivateNetwork: !app.cfg.IsProduction(),
			},
			LoginLimit: httpx.FailureLimitConfig{
				MaxFailures: app.cfg.LoginMaxFailures,
				Window:      app.cfg.LoginFailureWindow,
			},
			Metrics: app.metrics,
		},
		app.manager,
		app.files,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.ClientService = app.clientService
	router.ExchangeService = app.exchangeService
	router.ContactService = app.contactService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
