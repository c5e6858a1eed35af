package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hongminglow/student-api-be/internal/auth"
	"github.com/hongminglow/student-api-be/internal/config"
	"github.com/hongminglow/student-api-be/internal/logger"
	"github.com/hongminglow/student-api-be/internal/server"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/hongminglow/student-api-be/internal/storage/postgres"
	"github.com/hongminglow/student-api-be/internal/storage/sqlite"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	denylist, closeDenylist, err := openDenylist(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("init token denylist", zap.Error(err))
	}
	defer closeDenylist()

	srv := server.New(cfg, store, denylist, zlog)

	go func() {
		zlog.Info("student API backend listening",
			zap.String("addr", cfg.HTTPAddress()),
			zap.String("driver", cfg.DatabaseDriver),
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zlog.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DatabaseDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	default:
		return postgres.New(ctx, cfg.DatabaseURL)
	}
}

// openDenylist picks the revocation backend: redis when configured, an
// in-process denylist otherwise. The in-process fallback is only safe for a
// single instance.
func openDenylist(ctx context.Context, cfg config.Config, zlog *zap.Logger) (auth.TokenDenylist, func(), error) {
	if cfg.RedisAddr == "" {
		zlog.Info("REDIS_ADDR not set; using in-process token denylist")
		return auth.NewMemoryDenylist(), func() {}, nil
	}
	denylist, err := auth.NewRedisDenylist(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return denylist, func() { _ = denylist.Close() }, nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
