// Command createadmin creates an admin account, or promotes an existing user.
//
// Usage: createadmin <username> <email> <password>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/config"
	"github.com/01moynul/sweetshop-golang/internal/database"
	"github.com/01moynul/sweetshop-golang/internal/logging"
	"github.com/01moynul/sweetshop-golang/internal/models"
	"github.com/01moynul/sweetshop-golang/internal/store"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "Path to a YAML configuration file")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: createadmin [-config file] <username> <email> <password>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	s := store.NewSQLStore(db, cfg.Database.Driver)
	if err := s.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	if err := ensureAdmin(ctx, s, args[0], args[1], args[2]); err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}
	logger.Info("admin ready", zap.String("username", args[0]), zap.String("email", args[1]))
}

// ensureAdmin promotes the user matching username or email, or creates a new admin.
func ensureAdmin(ctx context.Context, users store.UserStore, username, email, plaintext string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	for _, login := range []string{email, username} {
		existing, err := users.FindUserByLogin(ctx, login)
		if err == nil {
			return users.SetRole(ctx, existing.ID, models.RoleAdmin)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	var password models.Password
	if err := password.Set(plaintext); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	return users.CreateUser(ctx, models.User{
		ID:           models.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: password.Hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
