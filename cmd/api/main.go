package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/stumpedhq/clubpay/docs"
	"github.com/stumpedhq/clubpay/internal/config"
	"github.com/stumpedhq/clubpay/internal/database"
	"github.com/stumpedhq/clubpay/internal/distribution"
	"github.com/stumpedhq/clubpay/internal/evidence"
	"github.com/stumpedhq/clubpay/internal/ledger"
	"github.com/stumpedhq/clubpay/internal/report"
	"github.com/stumpedhq/clubpay/internal/settlement"
	mw "github.com/stumpedhq/clubpay/pkg/middleware"
)

// @title           ClubPay API
// @version         1.0
// @description     Match fee ledger, payment distribution and reconciliation for a cricket club.
// @BasePath        /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	// Ledger feature: match obligations, lines, admin overrides
	ledgerRepo := ledger.NewRepository(db)
	ledgerService := ledger.NewService(ledgerRepo, logger)
	ledgerHandler := ledger.NewHandler(ledgerService)

	// Distribution feature: FIFO allocation of payments across dues
	distributionService := distribution.NewService(ledgerRepo, logger)
	distributionHandler := distribution.NewHandler(distributionService)

	// Settlement feature: overpayment resolution
	settlementService := settlement.NewService(ledgerRepo, logger)
	settlementHandler := settlement.NewHandler(settlementService)

	// Evidence feature: screenshot ingestion and review
	evidenceRepo := evidence.NewRepository(db)
	evidenceService := evidence.NewService(evidenceRepo, distributionService, cfg.ConfidenceThreshold, logger)
	evidenceHandler := evidence.NewHandler(evidenceService)

	// Report feature: player summaries and timelines
	reportService := report.NewService(ledgerRepo, logger)
	reportHandler := report.NewHandler(reportService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.AdminKeyMiddleware(cfg.AdminAPIKey))

		r.Mount("/matches", ledgerHandler.Routes())
		r.Mount("/payments", distributionHandler.Routes())
		r.Mount("/evidence", evidenceHandler.Routes())
		r.Mount("/players", reportHandler.Routes())

		// Line-level overrides and settlement share the /lines prefix.
		r.Route("/lines", func(r chi.Router) {
			r.Post("/{lineId}/mark-paid", ledgerHandler.MarkPaid)
			r.Post("/{lineId}/mark-unpaid", ledgerHandler.MarkUnpaid)
			r.Post("/{lineId}/settle", settlementHandler.Settle)
		})
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
