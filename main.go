package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report-logger/common"
	"report-logger/config"
	"report-logger/database"
	"report-logger/handlers"
	"report-logger/metrics"
	"report-logger/middleware"
	"report-logger/rabbitmq"
	"report-logger/uploads"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	addUser  = flag.String("add_user", "", "Create the named user (or reset its password) and exit.")
	password = flag.String("password", "", "Password for -add_user.")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load .env: %v", err)
	}
	cfg := config.Load()
	common.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := common.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.InitializeSchema(ctx, db); err != nil {
		log.Fatalf("Failed to initialize the schema: %v", err)
	}

	store, err := uploads.NewStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		log.Fatalf("Failed to prepare the upload directory: %v", err)
	}
	service := database.NewService(db, store)

	if *addUser != "" {
		if err := service.UpsertUser(ctx, *addUser, *password); err != nil {
			log.Fatalf("Failed to store user %q: %v", *addUser, err)
		}
		log.Infof("User %q stored", *addUser)
		return
	}

	var events handlers.EventPublisher
	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.ReportEventsExchange)
		if err != nil {
			log.Fatalf("Failed to create the report events publisher: %v", err)
		}
		defer publisher.Close()
		events = publisher
		log.Infof("Publishing report events to exchange %s", publisher.Exchange())
	}

	metrics.Register()

	h := handlers.NewHandlers(service, store, events, middleware.NewTokens(cfg.JWTSecret))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(h, cfg),
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
