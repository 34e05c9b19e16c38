package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	planHandler *PlanHandler,
	usageHandler *UsageHandler,
	bannerHandler *BannerHandler,
	authMiddleware func(http.Handler) http.Handler,
) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"plan-banner-service"}`))
	}).Methods("GET")

	// Protected routes (require authentication)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	// Plan routes (protected)
	protected.HandleFunc("/plan", planHandler.GetPlan).Methods("GET")

	// Usage routes (protected)
	protected.HandleFunc("/usage/limits", usageHandler.GetLimits).Methods("GET")
	protected.HandleFunc("/usage/reset", usageHandler.ResetUsage).Methods("POST")

	// Banner routes (protected)
	protected.HandleFunc("/banners", bannerHandler.GetBanners).Methods("GET")
	protected.HandleFunc("/banners/{type}/dismiss", bannerHandler.DismissBanner).Methods("POST")
	protected.HandleFunc("/banners/reset", bannerHandler.ResetBanners).Methods("POST")

	// Configure CORS. The primary client is the mobile app, but the web
	// dashboard hits these endpoints from the browser during development.
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler(router)
}
