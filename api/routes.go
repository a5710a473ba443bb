package api

import (
	"encoding/json"
	"fmt"
	"io/fs"

	dbfs "github.com/garnizeh/marketplace/db"
	"github.com/garnizeh/marketplace/internal/config"
	"github.com/garnizeh/marketplace/internal/db"
	"github.com/garnizeh/marketplace/internal/marketplace"
	"github.com/garnizeh/marketplace/internal/repository/sqlite"
	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository and domain service
	repo := sqlite.New(conn, logger)
	svc := marketplace.NewService(repo, repo, repo, logger)

	createSchema, err := loadJobCreateSchema()
	if err != nil {
		return nil, fmt.Errorf("load job create schema: %w", err)
	}

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, svc, cfg.JWTSecret, cfg.TokenDuration)
	jobsHandler := NewJobsHandler(svc, createSchema)
	bidsHandler := NewBidsHandler(svc)
	dashboardHandler := NewDashboardHandler(svc)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Profile endpoints
	apiV1.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	apiV1.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PATCH")

	// Job endpoints
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.UpdateJob).Methods("PATCH")

	// Bid endpoints
	apiV1.HandleFunc("/jobs/{id}/bids", bidsHandler.CreateBid).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/bids", bidsHandler.ListBidsForJob).Methods("GET")
	apiV1.HandleFunc("/bids", bidsHandler.ListMyBids).Methods("GET")
	apiV1.HandleFunc("/bids/{id}/accept", bidsHandler.AcceptBid).Methods("POST")
	apiV1.HandleFunc("/bids/{id}/reject", bidsHandler.RejectBid).Methods("POST")

	// Dashboard endpoints
	apiV1.HandleFunc("/dashboard", dashboardHandler.ProviderStats).Methods("GET")

	return r, nil
}

// loadJobCreateSchema compiles the embedded JSON schema that guards the
// job-creation payload.
func loadJobCreateSchema() (*jsonschema.Schema, error) {
	raw, err := fs.ReadFile(dbfs.SeedFiles, "seed/job_create_v1.json")
	if err != nil {
		return nil, err
	}

	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, err
	}

	return schema, nil
}
