// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/walt-tipbot/internal/logging"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/service"
)

// Service interfaces for dependency injection and testing

// TipServiceInterface defines the interface for tip lifecycle operations
type TipServiceInterface interface {
	GetTip(ctx context.Context, id int64) (*service.TipDetail, error)
	CompleteTip(ctx context.Context, id int64, txHash string) (*models.Tip, error)
}

// FaucetServiceInterface defines the interface for faucet operations
type FaucetServiceInterface interface {
	ClaimStatus(ctx context.Context, address string) (*service.FaucetStatus, error)
	Claim(ctx context.Context, address string) (*models.FaucetClaim, error)
	ClaimCount(ctx context.Context) (int64, error)
	Enabled() bool
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	tipService    TipServiceInterface
	faucetService FaucetServiceInterface
	config        *ServerConfig
	logger        *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	tipService TipServiceInterface,
	faucetService FaucetServiceInterface,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		tipService:    tipService,
		faucetService: faucetService,
		config:        config,
		logger:        logging.GetGlobalLogger(),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Faucet endpoints
	s.router.HandleFunc("/faucet/status/{address}", s.handleFaucetStatus).Methods("GET")
	s.router.HandleFunc("/faucet/claim", s.handleFaucetClaim).Methods("POST")

	// Tip endpoints used by the web app
	s.router.HandleFunc("/tip/{tipId}", s.handleGetTip).Methods("GET")
	s.router.HandleFunc("/webhook/complete", s.handleCompleteTip).Methods("POST")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	claims, err := s.faucetService.ClaimCount(r.Context())
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count faucet claims for health check")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"service":        "walt-tipping-api",
		"faucet_enabled": s.faucetService.Enabled(),
		"faucet_claims":  claims,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
