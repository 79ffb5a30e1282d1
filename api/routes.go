package api

import (
	"github.com/gorilla/mux"
	"github.com/reftrack/reftrack/internal/config"
	"github.com/reftrack/reftrack/internal/credentials"
	"github.com/reftrack/reftrack/internal/db"
	"github.com/reftrack/reftrack/internal/jobs"
	"github.com/reftrack/reftrack/internal/repository/sqlite"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, codec *credentials.Codec, jobsRepo *jobs.Repository) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(database, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.TokenDuration)
	accountsHandler := NewAccountsHandler(repo, repo, repo, codec, cfg.ReferralCode, cfg.TaskWindowHours)
	statsHandler := NewStatsHandler(repo, repo)
	exportsHandler := NewExportsHandler(jobsRepo, cfg.ExportDir)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")

	// Account endpoints
	apiV1.HandleFunc("/accounts", accountsHandler.SaveAccount).Methods("POST")
	apiV1.HandleFunc("/accounts", accountsHandler.ListAccounts).Methods("GET")
	apiV1.HandleFunc("/accounts/pending", accountsHandler.ListPending).Methods("GET")
	apiV1.HandleFunc("/accounts/verified", accountsHandler.ListVerifiedActive).Methods("GET")
	apiV1.HandleFunc("/accounts/due", accountsHandler.ListDue).Methods("GET")
	apiV1.HandleFunc("/account", accountsHandler.GetAccount).Methods("GET")
	apiV1.HandleFunc("/account", accountsHandler.DeleteAccount).Methods("DELETE")
	apiV1.HandleFunc("/account/history", accountsHandler.ListHistory).Methods("GET")
	apiV1.HandleFunc("/account/points", accountsHandler.AccruePoints).Methods("POST")

	// Task catalog
	apiV1.HandleFunc("/tasks", accountsHandler.ListTasks).Methods("GET")

	// Stats and exports
	apiV1.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	apiV1.HandleFunc("/exports", exportsHandler.CreateExport).Methods("POST")
	apiV1.HandleFunc("/exports/{id}", exportsHandler.GetExport).Methods("GET")

	return r
}
