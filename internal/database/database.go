package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // The MySQL driver. Note the '_' prefix.
	_ "github.com/mattn/go-sqlite3"    // SQLite for local runs and tests.
	"go.uber.org/zap"
)

// Supported driver names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// OpenDB creates and configures a connection pool for the given driver and DSN.
// The caller owns the returned handle and must Close it at shutdown.
func OpenDB(ctx context.Context, driver, dsn string, logger *zap.Logger) (*sql.DB, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// One connection: an in-memory database lives and dies with its connection,
		// and SQLite serializes writers anyway.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	logger.Info("database connection pool established", zap.String("driver", driver))
	return db, nil
}
