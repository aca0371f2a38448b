package main

import (
	"fmt"
	"log"

	"github.com/meljneres/sistema-obras/internal/config"
	"github.com/meljneres/sistema-obras/internal/database"
	"github.com/meljneres/sistema-obras/internal/logger"
	"github.com/meljneres/sistema-obras/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer l.Sync()

	if err := database.Init(cfg); err != nil {
		l.Fatal("database init failed", zap.Error(err))
	}

	r := server.NewRouter(cfg, l)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	l.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		l.Fatal("server error", zap.Error(err))
	}
}
