package cmd

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

	"github.com/frahmantamala/access-control/api"
	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/auth"
	authPostgres "github.com/frahmantamala/access-control/internal/auth/postgres"
	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/frahmantamala/access-control/internal/dashboard"
	dashboardPostgres "github.com/frahmantamala/access-control/internal/dashboard/postgres"
	"github.com/frahmantamala/access-control/internal/metrics"
	"github.com/frahmantamala/access-control/internal/session"
	sessionPostgres "github.com/frahmantamala/access-control/internal/session/postgres"
	"github.com/frahmantamala/access-control/internal/transport/middleware"
	"github.com/frahmantamala/access-control/internal/transport/openapi"
	"github.com/frahmantamala/access-control/internal/transport/rest"
	"github.com/frahmantamala/access-control/internal/user"
	userPostgres "github.com/frahmantamala/access-control/internal/user/postgres"
	"github.com/frahmantamala/access-control/pkg/job"
	"github.com/frahmantamala/access-control/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Jobs     *job.Runner
	Logger   *slog.Logger
}

func startHTTPServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	deps.Jobs.Start(ctx)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("Starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("Received signal, shutting down...")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("Server shutdown error", "error", err)
	}

	deps.Jobs.Wait()
	deps.EventBus.Wait()

	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	db, err := initDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := initGorm(db.DB)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.Wildcard, events.LogHandler(lg))

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
		m.Subscribe(bus)
	}

	hasher := auth.NewPasswordHasher(cfg.Security.PasswordScheme, cfg.Security.BCryptCost)
	guard := auth.NewGuard(cfg.Security.MaxLoginAttempts, cfg.Security.LockoutDuration())

	authRepo := authPostgres.NewRepository(db)
	resolver := auth.NewResolver(authRepo, lg)
	authService := auth.NewService(authRepo, hasher, guard, bus, lg)

	sessions := session.NewManager(
		sessionPostgres.NewRepository(gdb),
		session.NewCodec(cfg.Security.SecretKey),
		cfg.Session,
		lg,
	)

	userService := user.NewService(userPostgres.NewRepository(db), resolver, lg)
	dashboardService := dashboard.NewService(dashboardPostgres.NewRepository(db), cfg.Dashboard, cfg.Schedule, lg)

	doc, err := openapi.Load(ctx, api.OpenAPISpec)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	validator, err := openapi.NewValidator(doc, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	trusted, err := cfg.Server.TrustedProxyNets()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Routes{
		Health:         rest.NewHealthHandler(map[string]rest.Pinger{"postgres": db}, lg),
		Auth:           auth.NewHandler(authService, sessions),
		User:           user.NewHandler(userService),
		Dashboard:      dashboard.NewHandler(dashboardService),
		Sessions:       sessions,
		RBAC:           auth.NewRBACAuthorization(resolver, lg),
		LoginRate:      middleware.NewRateLimiter(cfg.Security.LoginRatePerSecond, cfg.Security.LoginRateBurst, lg),
		Validator:      validator,
		Metrics:        m,
		MetricsPath:    cfg.Observability.Metrics.Path,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPISpec:    api.OpenAPISpec,
		TrustedProxies: trusted,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, lg)

	jobs := job.NewRunner(lg)
	registerCleanupJobs(jobs, cfg, sessions, guard)

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		Router:   router,
		EventBus: bus,
		Jobs:     jobs,
		Logger:   lg,
	}, nil
}
