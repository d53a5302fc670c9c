package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"intelhub.dev/internal/config"
	"intelhub.dev/internal/migrate"
	"intelhub.dev/ops/migrations"
)

func main() {
	log.SetFlags(0)
	var (
		configPath     = flag.String("config", "", "Path to YAML config file")
		dsn            = flag.String("dsn", "", "PostgreSQL DSN (overrides INTELHUB_PG_DSN)")
		migrationsPath = flag.String("migrations", "", "Directory of SQL migrations (default: embedded)")
		seedsPath      = flag.String("seeds", "", "Directory of SQL seeds (default: embedded)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dsn == "" {
		*dsn = cfg.PGDSN
	}
	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or INTELHUB_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, pick(*migrationsPath, migrations.SQL()), pick(*seedsPath, migrations.Seeds()))

	switch flag.Arg(0) {
	case "up":
		var applied []string
		applied, err = mgr.Up(ctx)
		printAll("applied", applied)
	case "down":
		var name string
		name, err = mgr.Down(ctx)
		if errors.Is(err, migrate.ErrNothingApplied) {
			fmt.Println("nothing to roll back")
			err = nil
		} else if err == nil {
			fmt.Println("rolled back", name)
		}
	case "seed":
		var applied []string
		applied, err = mgr.Seed(ctx)
		printAll("seeded", applied)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		printAll("", history)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

func pick(dir string, embedded fs.FS) fs.FS {
	if dir != "" {
		return migrate.DirFS(dir)
	}
	return embedded
}

func printAll(prefix string, names []string) {
	for _, n := range names {
		if prefix == "" {
			fmt.Println(n)
			continue
		}
		fmt.Println(prefix, n)
	}
}
