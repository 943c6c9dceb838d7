package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordanhubbard/strata/internal/cache"
	"github.com/jordanhubbard/strata/internal/config"
	"github.com/jordanhubbard/strata/internal/database"
	"github.com/jordanhubbard/strata/internal/health"
	"github.com/jordanhubbard/strata/internal/learner"
	"github.com/jordanhubbard/strata/internal/messagebus"
	"github.com/jordanhubbard/strata/internal/service"
	"github.com/jordanhubbard/strata/internal/telemetry"
	"github.com/jordanhubbard/strata/pkg/models"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "strata.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("stratad v%s\n", version)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			log.Fatalf("failed to initialize telemetry: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("telemetry shutdown: %v", err)
			}
		}()
	}

	orch, err := learner.New(models.Mode(cfg.Mode), cfg.LearnerTunables())
	if err != nil {
		log.Fatalf("failed to create orchestrator: %v", err)
	}

	healthz := health.NewHandler(orch)

	var store service.ResultStore
	if cfg.Database.DSN != "" {
		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("failed to open history store: %v", err)
		}
		defer db.Close()
		store = db
		healthz.AddCheck("database", db.Ping)
		log.Printf("history store connected")
	}

	var scores service.ScoreCache
	if cfg.Redis.Addr != "" {
		c, err := cache.New(ctx, &cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			log.Fatalf("failed to connect scorecard cache: %v", err)
		}
		defer c.Close()
		scores = c
		healthz.AddCheck("cache", func() error { return c.Ping(ctx) })
		log.Printf("scorecard cache connected at %s", cfg.Redis.Addr)
	}

	bus, err := messagebus.NewNatsBus(messagebus.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		Timeout:        cfg.NATS.Timeout,
		ConsumerPrefix: cfg.NATS.ConsumerPrefix,
	})
	if err != nil {
		log.Fatalf("failed to connect message bus: %v", err)
	}
	defer bus.Close()

	svc := service.New(orch, bus, store, scores)
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("failed to start service: %v", err)
	}

	if _, err := os.Stat(*configPath); err == nil {
		watcher, err := config.NewWatcher(*configPath, svc.ApplyConfig)
		if err != nil {
			log.Printf("config hot reload disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	if cfg.Metrics.Enabled {
		go serveHTTP(cfg.Metrics.Listen, healthz)
	}

	log.Printf("stratad v%s running (%s mode)", version, cfg.Mode)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Printf("shutting down")
}

// loadConfig treats a missing config file as "use defaults" so the daemon
// can run from environment variables alone.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("config %s not found, using defaults", path)
		return config.Load("")
	}
	return config.Load(path)
}

func serveHTTP(listen string, healthz http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthz)
	srv := &http.Server{
		Addr:         listen,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("metrics and health listening on %s", listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("http server: %v", err)
	}
}
