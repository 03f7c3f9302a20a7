package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kislikjeka/wizmoney/internal/transport/httpapi/handler"
	"github.com/kislikjeka/wizmoney/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger             *logger.Logger
	AllowedOrigins     []string
	BookHandler        *handler.BookHandler
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	TemplateHandler    *handler.TemplateHandler
	SettingsHandler    *handler.SettingsHandler
	ReportHandler      *handler.ReportHandler
	HealthHandler      *handler.HealthHandler
	JWTMiddleware      func(http.Handler) http.Handler
	RateLimit          func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = middleware.RateLimit()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(cfg.RateLimit)

	// Health check endpoints (no authentication required)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTMiddleware == nil {
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(cfg.JWTMiddleware)

			if cfg.BookHandler != nil {
				r.Get("/book", cfg.BookHandler.GetBook)
				r.Put("/book", cfg.BookHandler.ReplaceBook)
				r.Delete("/book", cfg.BookHandler.ResetBook)
			}

			if cfg.AccountHandler != nil {
				r.Route("/accounts", func(r chi.Router) {
					r.Get("/", cfg.AccountHandler.GetAccounts)
					r.Post("/", cfg.AccountHandler.CreateAccount)
					r.Patch("/{id}", cfg.AccountHandler.UpdateAccount)
					r.Delete("/{id}", cfg.AccountHandler.DeleteAccount)
					r.Get("/{id}/transactions", cfg.AccountHandler.GetAccountTransactions)
				})
			}

			if cfg.TransactionHandler != nil {
				r.Route("/transactions", func(r chi.Router) {
					r.Get("/", cfg.TransactionHandler.GetTransactions)
					r.Post("/", cfg.TransactionHandler.CreateTransaction)
					r.Post("/import", cfg.TransactionHandler.ImportTransactions)
					r.Get("/export", cfg.TransactionHandler.ExportTransactions)
					r.Get("/{id}", cfg.TransactionHandler.GetTransaction)
					r.Put("/{id}", cfg.TransactionHandler.UpdateTransaction)
					r.Delete("/{id}", cfg.TransactionHandler.DeleteTransaction)
				})
				r.Get("/tags", cfg.TransactionHandler.GetTags)
			}

			if cfg.TemplateHandler != nil {
				r.Route("/templates", func(r chi.Router) {
					r.Get("/", cfg.TemplateHandler.GetTemplates)
					r.Get("/{id}", cfg.TemplateHandler.GetTemplate)
					r.Delete("/{id}", cfg.TemplateHandler.DeleteTemplate)
				})
			}

			if cfg.SettingsHandler != nil {
				r.Get("/settings", cfg.SettingsHandler.GetSettings)
				r.Put("/settings", cfg.SettingsHandler.UpdateSettings)
				r.Post("/settings/rates/reset", cfg.SettingsHandler.ResetRates)
			}

			if cfg.ReportHandler != nil {
				r.Get("/reports/dashboard", cfg.ReportHandler.GetDashboard)
				r.Get("/categories", cfg.ReportHandler.GetCategories)
			}
		})
	})

	return r
}
