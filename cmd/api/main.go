package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"intelhub.dev/internal/auth"
	"intelhub.dev/internal/config"
	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/httpapi"
	"intelhub.dev/internal/migrate"
	"intelhub.dev/internal/obs"
	"intelhub.dev/internal/seed"
	"intelhub.dev/internal/store/pg"
	"intelhub.dev/internal/stream"
	"intelhub.dev/ops/migrations"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	log.SetFlags(0)
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		autoMigrate = flag.Bool("migrate", false, "Apply pending migrations on start (PostgreSQL only)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store dossier.Service
		ready httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		pgStore, err := pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		if *autoMigrate {
			applied, err := migrate.NewManager(pgStore.DB(), migrations.SQL(), nil).Up(ctx)
			if err != nil {
				log.Fatalf("migrate: %v", err)
			}
			obs.Info("migrations_applied", map[string]any{"count": len(applied), "names": applied})
		}
		store = pgStore
		ready = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		store = dossier.NewInMemory()
		obs.Warn("using_in_memory_store", nil)
	}

	if cfg.SeedDemo {
		ds, err := seed.Demo()
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if err := ds.LoadInto(ctx, store); err != nil {
			// already seeded stores reject duplicate ids
			obs.Error("seed_failed", err, nil)
		} else {
			obs.Info("seed_loaded", map[string]any{"subjects": len(ds.Subjects), "tasks": len(ds.Tasks)})
		}
	}

	var tokens *auth.Tokens
	if cfg.AuthEnabled() {
		if tokens, err = auth.NewTokens(cfg.AuthSecret); err != nil {
			log.Fatalf("auth: %v", err)
		}
	} else {
		obs.Warn("auth_disabled", map[string]any{"hint": "set INTELHUB_AUTH_SECRET"})
	}

	api := httpapi.New(httpapi.Options{
		Version:      version,
		Store:        store,
		Stream:       stream.New(),
		Ready:        ready,
		Tokens:       tokens,
		TokenTTL:     cfg.TokenTTL,
		RateBurst:    cfg.RateBurst,
		RatePerSec:   cfg.RatePerSec,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// WriteTimeout stays unset so /v1/stream connections are not cut.
	}

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		health := httpapi.NewHealthServer(ready)
		grpcSrv = httpapi.NewGRPCServer(health)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		go health.Run(ctx, 10*time.Second)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	obs.Info("starting", map[string]any{
		"version":   version,
		"http_addr": cfg.HTTPAddr,
		"grpc_addr": cfg.GRPCAddr,
		"store":     storeKind(cfg),
		"auth":      cfg.AuthEnabled(),
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	obs.Info("shutting_down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		obs.Error("http_shutdown", err, nil)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	obs.Info("stopped", nil)
}

func storeKind(cfg config.Config) string {
	if cfg.PGDSN != "" {
		return "postgres"
	}
	return "memory"
}
