package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jlightning/polyglot-io-sub000/internal/config"
	"github.com/jlightning/polyglot-io-sub000/internal/handler"
	"github.com/jlightning/polyglot-io-sub000/internal/repository"
	"github.com/jlightning/polyglot-io-sub000/internal/service"
)

func main() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.EncoderConfig.TimeKey = "timestamp"

	logger, err := logConfig.Build()
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.S().Info("logger initialized")

	if err := godotenv.Load(); err != nil {
		zap.S().Debug("load .env file", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatal("load config", zap.Error(err))
	}

	repo, err := repository.NewDB(cfg.PostgresDSN, cfg.MaxIdleConns, cfg.MaxOpenConns)
	if err != nil {
		zap.S().Error("connect to PostgreSQL", zap.Error(err))
		os.Exit(1)
	}
	defer repo.Close()

	if err = repo.Up(cfg.MigrationsDir); err != nil {
		zap.S().Error("run migrations", zap.Error(err))
		os.Exit(1)
	}

	svc := service.NewService(repo)
	router := handler.NewRouter(svc)

	addr := ":" + cfg.Port
	zap.S().Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		zap.S().Fatal("server failed", zap.Error(err))
	}
}
