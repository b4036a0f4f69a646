package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/session"
	sessionPostgres "github.com/frahmantamala/access-control/internal/session/postgres"
	"github.com/frahmantamala/access-control/pkg/job"
	"github.com/frahmantamala/access-control/pkg/logger"
	"github.com/spf13/cobra"
)

const guardSweepInterval = time.Minute

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that keep the datastore tidy.`,
}

var cleanupWorkerCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge expired sessions",
	Long:  `Periodically delete session records past their expiry. With --once, purge a single time and exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		startCleanupWorker()
	},
}

var cleanupOnce bool

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// registerCleanupJobs adds the session purge and, when the process owns a
// login guard, the guard sweep.
func registerCleanupJobs(jobs *job.Runner, cfg *internal.Config, sessions sessionPurger, guard *auth.Guard) {
	jobs.Register("session-purge", cfg.Session.CleanupInterval, func(ctx context.Context) error {
		n, err := sessions.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge expired sessions: %w", err)
		}
		if n > 0 {
			logger.L().InfoContext(ctx, "expired sessions purged", "count", n)
		}
		return nil
	})

	jobs.TryRegister(guard != nil, "login-guard-sweep", guardSweepInterval, func(ctx context.Context) error {
		if n := guard.Sweep(); n > 0 {
			logger.L().DebugContext(ctx, "login guard entries dropped", "count", n)
		}
		return nil
	})
}

func startCleanupWorker() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gdb, err := initGorm(db.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	sessions := session.NewManager(sessionPostgres.NewRepository(gdb), session.NewCodec(cfg.Security.SecretKey), cfg.Session, lg)

	jobs := job.NewRunner(lg)
	registerCleanupJobs(jobs, cfg, sessions, nil)

	if cleanupOnce {
		if err := jobs.RunOnce(ctx); err != nil {
			lg.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
		return
	}

	lg.Info("cleanup worker is running. Press Ctrl+C to stop.", "interval", cfg.Session.CleanupInterval)
	jobs.Start(ctx)
	<-ctx.Done()
	jobs.Wait()
	lg.Info("cleanup worker stopped")
}

func init() {
	cleanupWorkerCmd.Flags().BoolVar(&cleanupOnce, "once", false, "purge once and exit")
	workerCmd.AddCommand(cleanupWorkerCmd)
}
