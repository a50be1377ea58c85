package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/finhealth/internal/config"
	"github.com/Dan9191/finhealth/internal/handler"
	"github.com/Dan9191/finhealth/internal/integrations/cbr"
	"github.com/Dan9191/finhealth/internal/metrics"
	"github.com/Dan9191/finhealth/internal/middleware"
	"github.com/Dan9191/finhealth/internal/notify"
	"github.com/Dan9191/finhealth/internal/quotes"
	"github.com/Dan9191/finhealth/internal/repository"
	"github.com/Dan9191/finhealth/internal/scheduler"
	"github.com/Dan9191/finhealth/internal/service"
	"github.com/Dan9191/finhealth/internal/utils"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// store is what both repositories provide
type store interface {
	service.Store
	quotes.PriceSource
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize storage
	var repo store
	if cfg.InMemory() {
		logger.Warn("DB_CONN=memory, records are kept in process memory only")
		repo = repository.NewInMemoryRepository()
	} else {
		key, err := cfg.EncryptionKeyBytes()
		if err != nil {
			logger.Fatalf("Failed to read encryption key: %v", err)
		}
		cipher, err := utils.NewPayloadCipher(key)
		if err != nil {
			logger.Fatalf("Failed to create cipher: %v", err)
		}
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		repo = repository.NewRepository(db, cipher)
	}

	// Initialize layers
	m := metrics.New()
	cbrClient := cbr.NewCBRClient(cfg, logger)
	quoteProvider := quotes.NewProvider(repo, cbrClient, cfg.QuoteTTL, logger)
	svc := service.NewService(repo, quoteProvider, m, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Background jobs
	sched := scheduler.New(logger)
	if err := sched.Schedule(cfg.AggregateCron, scheduler.NewAggregateJob(repo, svc, logger)); err != nil {
		logger.Fatalf("Failed to schedule aggregate job: %v", err)
	}
	sender := notify.NewSender(cfg, logger)
	if err := sched.Schedule(cfg.AlertCron, scheduler.NewAlertJob(repo, svc, sender, logger)); err != nil {
		logger.Fatalf("Failed to schedule alert job: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.Handle("/metrics", m.Handler(logger)).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg, logger))
	h.RegisterRoutes(authRouter)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
