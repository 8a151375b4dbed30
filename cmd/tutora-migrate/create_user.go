package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/config"
	"tutora/backend/internal/notify"
	"tutora/backend/internal/store/postgres"
)

// createUser adds an administrator account. There is no sign-up RPC.
func createUser(ctx context.Context, cfg config.Config, db *bun.DB, log *slog.Logger, email, name string) error {
	password := os.Getenv("TUTORA_NEW_USER_PASSWORD")
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("TUTORA_NEW_USER_PASSWORD is required")
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	provider := auth.NewProvider(postgres.NewUserRepo(db), auth.NewRedisStore(rdb), tokens, notify.NewStubEmailSender(log), auth.Config{
		BcryptCost: cfg.BcryptCost,
		Logger:     log,
	})
	user, err := provider.CreateUser(ctx, email, name, password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	log.Info("user created", slog.String("user_id", user.ID.String()), slog.String("email", user.Email))
	return nil
}
