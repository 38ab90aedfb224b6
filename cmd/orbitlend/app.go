package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"orbitlend-backend/internal/adapter/repository/gormrepo"
	"orbitlend-backend/internal/config"
	"orbitlend-backend/internal/infrastructure/cache"
	"orbitlend-backend/internal/infrastructure/db"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/internal/usecase/auth"
)

// app holds the connections every command needs.
type app struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
	rdb *redis.Client
}

func bootstrap(withRedis bool) (*app, error) {
	if p := config.LoadDotenv(); p != "" {
		slog.Info("loaded env file", "path", p)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(logger.Config{Service: "orbitlend", Env: cfg.AppEnv, Level: cfg.LogLevel, Format: cfg.LogFormat})

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: gdb}
	if withRedis {
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.rdb = rdb
	}
	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) authUsecase(nonces auth.NonceStore) *auth.Usecase {
	repos := gormrepo.NewGormUoW(a.db).Repos()
	return auth.NewUsecase(repos.Users, auth.NewTokenManager(a.cfg.JWTSecret, a.cfg.JWTIssuer, a.cfg.JWTTTL), nonces, a.cfg.WalletNonceTTL)
}

func (a *app) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
