package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"marketplace/internal/config"
	"marketplace/internal/infra/db"
	"marketplace/internal/logger"

	"github.com/joho/godotenv"
)

// go run ./cmd/migrate -dir up|down
func main() {
	dir := flag.String("dir", "up", "up or down")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()
	log := logger.New(logger.Options{ServiceName: "marketplace-migrate"})

	//マイグレーションはDB設定だけあればよい
	dbCfg, err := config.LoadDB()
	if err != nil {
		log.Error(ctx, "config load failed", err)
		os.Exit(1)
	}

	gormDB, err := db.Connect(dbCfg)
	if err != nil {
		log.Error(ctx, "db connect failed", err)
		os.Exit(1)
	}

	switch *dir {
	case "up":
		err = db.Migrate(ctx, gormDB)
	case "down":
		err = db.Rollback(ctx, gormDB)
	default:
		err = fmt.Errorf("unknown dir %q", *dir)
	}
	if err != nil {
		log.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	log.Info(ctx, "migration "+*dir+" done")
}
