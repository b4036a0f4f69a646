package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	dbDriver       = "pgx"
	dbPingAttempts = 10
	dbPingBackoff  = 500 * time.Millisecond
)

// initDB opens the shared pool and waits for the server to answer.
func initDB(ctx context.Context, cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(dbDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := internal.WithTimeout(ctx, cfg.ConnectTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt == dbPingAttempts || ctx.Err() != nil {
			break
		}
		logger.L().Warn("database not ready, retrying", "attempt", attempt, "error", err)
		time.Sleep(dbPingBackoff)
	}

	_ = db.Close()
	return nil, fmt.Errorf("failed to ping database: %w", err)
}

// initGorm wraps an existing pool so gorm and sqlx share connections.
func initGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
