// Package api exposes the advisor over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-advisor/internal/common/database"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/common/observability"
	"loan-advisor/internal/models"
	"loan-advisor/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Advisor is the conversational surface served under /api/chat.
type Advisor interface {
	HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error)
	History(ctx context.Context, userID string) ([]models.Message, error)
	Clear(ctx context.Context, userID string) error
}

type Options struct {
	Advisor         Advisor
	Catalog         store.Catalog
	DefaultLanguage models.Language
	Dependencies    []database.Pinger
	ReadyTimeout    time.Duration
	Observability   *observability.Observability
	MetricsHandler  http.Handler
	Logger          logger.Logger
}

type Server struct {
	advisor         Advisor
	catalog         store.Catalog
	defaultLanguage models.Language
	dependencies    []database.Pinger
	readyTimeout    time.Duration
	obs             *observability.Observability
	metrics         http.Handler
	logger          logger.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		advisor:         opts.Advisor,
		catalog:         opts.Catalog,
		defaultLanguage: opts.DefaultLanguage,
		dependencies:    opts.Dependencies,
		readyTimeout:    opts.ReadyTimeout,
		obs:             opts.Observability,
		metrics:         opts.MetricsHandler,
		logger:          opts.Logger,
	}
	if s.defaultLanguage == "" {
		s.defaultLanguage = models.LanguageEnglish
	}
	if s.readyTimeout <= 0 {
		s.readyTimeout = 2 * time.Second
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

// Routes returns the full handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/chat/history", s.handleClearHistory)

	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("GET /api/loans/{id}", s.handleGetLoan)
	mux.HandleFunc("POST /api/loans/{id}/check-eligibility", s.handleLoanEligibility)
	mux.HandleFunc("POST /api/eligibility", s.handleEligibility)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", s.metrics)

	return s.obs.Middleware(mux)
}
