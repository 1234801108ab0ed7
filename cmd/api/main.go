package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/nmbt2910/iheartev/internal/config"
	"github.com/nmbt2910/iheartev/internal/db"
	applog "github.com/nmbt2910/iheartev/internal/logger"
	"github.com/nmbt2910/iheartev/internal/metrics"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog := applog.New(cfg.LogLevel, cfg.LogEncoding)
	defer zlog.Sync()

	conn, err := db.Connect(cfg)
	if err != nil {
		zlog.Fatalw("db connect error", "err", err)
	}
	if err := conn.AutoMigrate(
		&model.User{},
		&model.Listing{},
		&model.Order{},
		&model.Review{},
		&model.Favorite{},
	); err != nil {
		zlog.Fatalw("auto migrate error", "err", err)
	}

	m := metrics.NewMarketMetrics()

	srv := server.New(conn, cfg.JWTSecret, zlog, m)

	addr := ":" + cfg.Port
	zlog.Infow("starting server", "addr", addr)
	if err := srv.Start(addr); err != nil {
		zlog.Fatalw("server stopped", "err", err)
	}
}
