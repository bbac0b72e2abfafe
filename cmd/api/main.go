package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/ccpp/planner-service/internal/config"
	"github.com/ccpp/planner-service/internal/handler"
	"github.com/ccpp/planner-service/internal/integrations/rates"
	"github.com/ccpp/planner-service/internal/middleware"
	"github.com/ccpp/planner-service/internal/repository"
	"github.com/ccpp/planner-service/internal/service"
	"github.com/ccpp/planner-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

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

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, mailer)
	h := handler.NewHandler(svc)
	ratesClient := rates.NewClient(cfg, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/cards", h.ListCards).Methods("GET")
	authRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	authRouter.HandleFunc("/cards/{id}", h.UpdateCard).Methods("PATCH")
	authRouter.HandleFunc("/cards/{id}", h.DeleteCard).Methods("DELETE")
	authRouter.HandleFunc("/plan/generate", h.GeneratePlan).Methods("POST")
	authRouter.HandleFunc("/plan/latest", h.LatestPlan).Methods("GET")
	authRouter.HandleFunc("/plan/actions/{actionId}/mark-paid", h.MarkActionPaid).Methods("POST")
	authRouter.HandleFunc("/plan/preferences", h.GetPreferences).Methods("GET")
	authRouter.HandleFunc("/plan/preferences", h.SavePreferences).Methods("PUT")
	// Advisory APR benchmark endpoint
	r.HandleFunc("/apr-benchmark", func(w http.ResponseWriter, r *http.Request) {
		bps, err := ratesClient.BenchmarkAPRBps()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get APR benchmark: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]int64{"apr_benchmark_bps": bps})
	}).Methods("GET")

	// Daily reminder job for upcoming plan actions
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReminderCron, func() {
		if err := svc.SendUpcomingActionReminders(3); err != nil {
			logger.Errorf("Reminder job failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule reminder job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
