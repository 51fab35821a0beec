package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/qs3c/novel_go_server/config"
	"github.com/qs3c/novel_go_server/internal/database"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	command := flag.String("cmd", "up", "up | down | status")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("SQL migrations target postgres, got driver %q", cfg.Database.Driver)
	}

	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = database.PostgresDSN(&cfg.Database)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.OpenPostgresSQL(ctx, dsn)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	defer db.Close()

	switch *command {
	case "up":
		err = database.RunMigrations(ctx, db)
	case "down":
		err = database.RollbackMigration(ctx, db)
	case "status":
		err = database.MigrationStatus(ctx, db)
	default:
		log.Fatalf("Unknown command %q", *command)
	}
	if err != nil {
		log.Fatalf("Migration %s failed: %v", *command, err)
	}
	log.Printf("Migration %s done", *command)
}
