// Package main applies or rolls back the Postgres schema used by the
// postgres store driver.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hackcrew/service_layer/internal/app/storage/postgres"
	"github.com/hackcrew/service_layer/internal/config"
	"github.com/hackcrew/service_layer/internal/logging"
	"github.com/hackcrew/service_layer/internal/platform/migrations"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file loaded before the environment is read")
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	flag.Parse()

	log := logging.NewDefault("migrate")

	// Default to the postgres driver so Validate insists on DATABASE_URL.
	if os.Getenv("STORE_DRIVER") == "" {
		_ = os.Setenv("STORE_DRIVER", config.StorePostgres)
	}
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if cfg.Database.DSN == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db, err := postgres.Open(ctx, cfg.Database.DSN, 1)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if *down > 0 {
		err = migrations.Down(db.DB, *down)
	} else {
		err = migrations.Up(db.DB)
	}
	if err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	version, dirty, err := migrations.Version(db.DB)
	if err != nil {
		log.WithError(err).Fatal("read schema version")
	}
	log.WithField("version", version).WithField("dirty", dirty).Info("schema migrated")
}
