//cmd/seeder/main.go
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/config"
	"github.com/unclebandit/blood-dispatch/internal/db"
	"github.com/unclebandit/blood-dispatch/internal/logger"
)

var seedFiles = []string{
	"migrations/0001_init.sql",
	"seed/hospitals.sql",
	"seed/donors.sql",
}

func main() {
	_ = godotenv.Load()
	cfg := config.Parse()

	log, err := logger.NewLogger(cfg.LogLevel, "console", "blood-dispatch-seeder")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer conn.Close()

	for _, file := range seedFiles {
		if err := db.RunSQLFile(ctx, conn, file); err != nil {
			log.Fatal("seeding failed", zap.String("file", file), zap.Error(err))
		}
		log.Info("seeded", zap.String("file", file))
	}

	log.Info("database seeding completed successfully")
}
