package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"election-ledger/internal/api"
	"election-ledger/internal/api/handlers"
	"election-ledger/internal/database"
	"election-ledger/internal/ledger"
	"election-ledger/pkg/config"
	"election-ledger/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// A missing .env is fine; the config layer has its own defaults
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	log.SetFormatter(cfg.Logging.Format)
	log.Info("Starting election ledger server")

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations: %v", err)
	}
	log.Info("Database ready (%s)", cfg.Database.Type)

	svc, err := ledger.New(db, log, cfg.Audit.SigningKey)
	if err != nil {
		log.Fatal("Failed to initialize ledger: %v", err)
	}
	if cfg.Audit.SigningKey != "" {
		log.Info("Audit entries signed by %s", svc.SignerAddress())
	} else {
		log.Warning("No audit signing key configured, entries will be unsigned")
	}

	hub := handlers.NewEventHub(svc, log)
	router := api.SetupRouter(api.NewServiceContainer(svc, cfg, log), hub)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown: %v", err)
	}
	log.Info("Server stopped")
}
