package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samirrijal/pawmatch/internal/adapters/postgres"
	"github.com/samirrijal/pawmatch/internal/pkg/config"
	"github.com/samirrijal/pawmatch/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|list>")
	}

	cfg, err := config.Load("pawmatch-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if os.Args[1] == "list" {
		files, err := postgres.Migrations(false)
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = db.Migrate(ctx, false)
	case "down":
		err = db.Migrate(ctx, true)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", os.Args[1], err)
	}
	log.Printf("migrations %s complete", os.Args[1])
}
