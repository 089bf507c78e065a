package store

import (
	"context"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS sweets (
		id          VARCHAR(26)  NOT NULL PRIMARY KEY,
		name        VARCHAR(100) NOT NULL,
		category    VARCHAR(32)  NOT NULL,
		price       DOUBLE       NOT NULL,
		quantity    INT          NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		image_ref   VARCHAR(512) NOT NULL DEFAULT '',
		version     BIGINT       NOT NULL,
		created_at  DATETIME(6)  NOT NULL,
		updated_at  DATETIME(6)  NOT NULL,
		INDEX idx_sweets_created_at (created_at),
		CONSTRAINT chk_sweets_quantity CHECK (quantity >= 0),
		CONSTRAINT chk_sweets_price CHECK (price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(26)  NOT NULL PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL UNIQUE,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sweets (
		id          TEXT     NOT NULL PRIMARY KEY,
		name        TEXT     NOT NULL,
		category    TEXT     NOT NULL,
		price       REAL     NOT NULL CHECK (price >= 0),
		quantity    INTEGER  NOT NULL CHECK (quantity >= 0),
		description TEXT     NOT NULL DEFAULT '',
		image_ref   TEXT     NOT NULL DEFAULT '',
		version     INTEGER  NOT NULL,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sweets_created_at ON sweets (created_at)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     NOT NULL PRIMARY KEY,
		username      TEXT     NOT NULL UNIQUE COLLATE NOCASE,
		email         TEXT     NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT     NOT NULL,
		role          TEXT     NOT NULL,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	stmts := mysqlSchema
	if s.driver == "sqlite3" {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
