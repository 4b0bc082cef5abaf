package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/username/portfoliodesk/backend/src/config"
	"github.com/username/portfoliodesk/backend/src/database"
	"github.com/username/portfoliodesk/backend/src/handlers"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/processors"
	"github.com/username/portfoliodesk/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Portfoliodesk backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	reportCache := cache.New(config.Cfg.SummaryCacheTTL, services.CacheCleanupInterval)

	aggregator := processors.NewPortfolioAggregator(config.Cfg.FallbackLabels())

	summaryService := services.NewSummaryService(database.DB, aggregator, reportCache, config.Cfg.DefaultAUM)
	importService := services.NewImportService(database.DB, summaryService, config.Cfg.DefaultAUM)
	positionService := services.NewPositionService(database.DB, summaryService, config.Cfg.DefaultAUM)
	taxonomyService := services.NewTaxonomyService(database.DB, summaryService)
	settingsService := services.NewSettingsService(database.DB, config.Cfg.DefaultAUM, summaryService)
	tradeService := services.NewTradeService(database.DB, summaryService, config.Cfg.DefaultAUM)
	nameMappingService := services.NewNameMappingService(database.DB)

	api := &handlers.API{
		Upload:       handlers.NewUploadHandler(importService),
		Portfolio:    handlers.NewPortfolioHandler(summaryService, settingsService),
		Positions:    handlers.NewPositionHandler(positionService),
		Taxonomy:     handlers.NewTaxonomyHandler(taxonomyService),
		Trades:       handlers.NewTradeHandler(tradeService),
		NameMappings: handlers.NewNameMappingHandler(nameMappingService),
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(handlers.MetricsMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-Requested-With", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst)))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Portfoliodesk backend is running"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", api.Routes)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
