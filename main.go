package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/repository"
	"github.com/cppla/blogapi/routes"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg config.AppConfig, logger *zap.Logger) error {
	ctx := context.Background()

	users, posts, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rc := utils.NewRedis(cfg, logger)
	if rc != nil {
		defer func() { _ = rc.Close() }()
	}

	creds, err := services.NewCredentials(cfg.JWTSecret, cfg.TokenTTL, utils.NewTokenBlacklist(rc))
	if err != nil {
		return err
	}

	r := routes.SetupRouter(routes.Deps{
		Config:      cfg,
		Logger:      logger,
		Accounts:    services.NewAccounts(users, creds),
		Credentials: creds,
		Posts:       services.NewPosts(posts),
		Cache:       utils.NewCache(rc, cfg.ListCacheTTL, logger),
	})

	logger.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.String("driver", cfg.DBDriver),
		zap.Bool("redis", rc != nil),
	)
	return utils.GraceServer(ctx, ":"+cfg.AppPort, r, logger)
}

// openStore connects the configured backend and returns its repositories.
func openStore(ctx context.Context, cfg config.AppConfig) (repository.UserRepository, repository.PostRepository, func(), error) {
	if cfg.DBDriver == config.DriverMongo {
		client, db, err := config.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		userRepo := repository.NewMongoUserRepository(db)
		postRepo := repository.NewMongoPostRepository(db)

		ictx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := userRepo.EnsureIndexes(ictx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("user indexes: %w", err)
		}
		if err := postRepo.EnsureIndexes(ictx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("post indexes: %w", err)
		}
		return userRepo, postRepo, closeFn, nil
	}

	db, err := config.OpenDatabase(cfg, &models.User{}, &models.Post{}, &models.PostTag{})
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewGormUserRepository(db), repository.NewGormPostRepository(db), closeFn, nil
}
