// Package server provides the HTTP REST API for the credit scorer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonathan/credit-scorer/internal/db"
	"github.com/jonathan/credit-scorer/internal/integration"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/server/ratelimit"
	"github.com/jonathan/credit-scorer/internal/synthetic"
)

// riskTrainingSamples is the synthetic dataset size used to fit the
// traditional risk model at startup.
const riskTrainingSamples = 500

// Config holds server configuration
type Config struct {
	Port          int
	DatabaseURL   string
	ModelPath     string
	ModelType     string
	CVFolds       int
	RandomState   int64
	AltDataWeight float64
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	cfg         Config
	rateLimiter *ratelimit.Limiter

	mu     sync.RWMutex
	system *integration.LendingSystem
}

// New creates a new server instance. The database is optional: without one
// the run and assessment endpoints report 503 and nothing is persisted.
func New(cfg Config) (*Server, error) {
	s := &Server{cfg: cfg}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(context.Background()); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		s.db = database
	} else {
		log.Printf("no database configured, runs and assessments will not be persisted")
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	system, err := buildLendingSystem(cfg)
	if err != nil {
		if s.db != nil {
			s.db.Close()
		}
		return nil, err
	}
	if s.db != nil {
		system.Recorder = s.db
	}
	s.system = system

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for synchronous training runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// buildLendingSystem assembles the scoring stack: the enhanced model from
// the configured bundle (untrained when the bundle is absent) and a risk
// model fitted on a deterministic synthetic dataset.
func buildLendingSystem(cfg Config) (*integration.LendingSystem, error) {
	model := scoring.NewModel(cfg.ModelType, cfg.CVFolds, cfg.RandomState)
	if cfg.ModelPath != "" {
		if err := model.Load(cfg.ModelPath); err != nil {
			return nil, fmt.Errorf("failed to load model bundle: %w", err)
		}
	}

	risk := scoring.NewRiskModel(cfg.CVFolds, cfg.RandomState)
	if err := trainRiskModel(risk, cfg.RandomState); err != nil {
		log.Printf("risk model training failed, traditional scores fall back to neutral: %v", err)
	}

	return integration.NewLendingSystem(
		integration.NewIntegrator(model, cfg.AltDataWeight),
		risk,
	), nil
}

// trainRiskModel fits the traditional risk model on a deterministic
// synthetic dataset in the serving vocabulary.
func trainRiskModel(risk *scoring.RiskModel, seed int64) error {
	table, y, err := synthetic.Generate(riskTrainingSamples, seed, false)
	if err != nil {
		return err
	}
	serving, err := synthetic.ServingView(table)
	if err != nil {
		return err
	}
	_, err = risk.Train(context.Background(), serving, y)
	return err
}

// routes builds the request multiplexer
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /applications/score", s.handleScoreApplication)

	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/artifacts", s.handleRunArtifacts)

	mux.HandleFunc("GET /assessments", s.handleListAssessments)
	mux.HandleFunc("GET /assessments/{id}", s.handleGetAssessment)

	return mux
}

// currentSystem returns the active lending system
func (s *Server) currentSystem() *integration.LendingSystem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system
}

// swapIntegrator publishes a fresh lending system serving the newly
// trained integrator. Published systems are never mutated, so handlers
// holding a snapshot from currentSystem keep a consistent view.
func (s *Server) swapIntegrator(integrator *integration.Integrator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.system
	next.Integrator = integrator
	s.system = &next
}

// Start begins listening for requests and blocks until shutdown
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// Uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate
// limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
