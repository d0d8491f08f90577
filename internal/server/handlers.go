package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/credit-scorer/internal/db"
	"github.com/jonathan/credit-scorer/internal/pipeline"
	"github.com/jonathan/credit-scorer/internal/schemas"
	"github.com/jonathan/credit-scorer/internal/types"
)

// maxRequestBody caps incoming JSON documents at 1 MiB
const maxRequestBody = 1 << 20

// defaultRunSamples is the synthetic dataset size when a training request
// names neither samples nor a dataset.
const defaultRunSamples = 1000

// RunResponse represents the response for POST /runs
type RunResponse struct {
	RunID        string  `json:"run_id,omitempty"`
	Status       string  `json:"status"`
	Rows         int     `json:"rows"`
	PositiveRate float64 `json:"positive_rate"`
	ROCAUC       float64 `json:"roc_auc"`
	ModelType    string  `json:"model_type"`
}

// handleScoreApplication validates and processes one loan application
func (s *Server) handleScoreApplication(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := schemas.ValidateLoanApplication(body); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			s.jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid_application",
				"detail": err.Error(),
			})
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Schema validation unavailable: "+err.Error())
		return
	}

	var app types.LoanApplication
	if err := json.Unmarshal(body, &app); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := app.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application: "+err.Error())
		return
	}

	result, err := s.currentSystem().ProcessApplication(r.Context(), &app)
	if err != nil {
		log.Printf("application processing failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Application processing failed")
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleCreateRun starts a training run and executes it synchronously
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	if err := schemas.ValidateTrainRequest(body); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			s.jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid_train_request",
				"detail": err.Error(),
			})
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Schema validation unavailable: "+err.Error())
		return
	}

	var req types.TrainRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid training request: "+err.Error())
		return
	}

	opts := pipeline.RunOptions{
		ModelType:     req.ModelType,
		CVFolds:       req.CVFolds,
		RandomState:   req.RandomState,
		AltDataWeight: s.cfg.AltDataWeight,
		Samples:       req.Samples,
		DatasetPath:   req.DatasetPath,
		ModelPath:     s.cfg.ModelPath,
		DatabaseURL:   s.cfg.DatabaseURL,
	}
	if opts.ModelType == "" {
		opts.ModelType = s.cfg.ModelType
	}
	if opts.CVFolds == 0 {
		opts.CVFolds = s.cfg.CVFolds
	}
	if opts.RandomState == 0 {
		opts.RandomState = s.cfg.RandomState
	}
	if opts.Samples == 0 && opts.DatasetPath == "" {
		opts.Samples = defaultRunSamples
	}

	result, err := pipeline.RunTraining(r.Context(), opts)
	if err != nil {
		log.Printf("training run failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Training run failed: "+err.Error())
		return
	}

	// Serve the freshly trained model from now on
	s.swapIntegrator(result.Integrator)

	resp := RunResponse{
		Status:       db.RunStatusCompleted,
		Rows:         result.Rows,
		PositiveRate: result.PositiveRate,
		ROCAUC:       result.Report.Metrics.ROCAUC,
		ModelType:    result.Report.Family,
	}
	if result.RunID != uuid.Nil {
		resp.RunID = result.RunID.String()
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleListRuns lists recent scoring runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	filters := db.RunFilters{
		ModelType: r.URL.Query().Get("model_type"),
		Status:    r.URL.Query().Get("status"),
		Limit:     queryLimit(r, 50),
	}

	runs, err := s.db.ListRuns(r.Context(), filters)
	if err != nil {
		log.Printf("listing runs failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one scoring run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	run, err := s.db.GetRun(r.Context(), runID)
	if err != nil {
		log.Printf("getting run failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleRunArtifacts returns all artifacts of a run
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	artifacts, err := s.db.ListArtifacts(r.Context(), runID)
	if err != nil {
		log.Printf("listing artifacts failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list artifacts")
		return
	}
	if artifacts == nil {
		artifacts = []db.Artifact{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

// handleListAssessments lists recent stored assessments
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	assessments, err := s.db.ListAssessments(r.Context(), queryLimit(r, 50))
	if err != nil {
		log.Printf("listing assessments failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list assessments")
		return
	}
	if assessments == nil {
		assessments = []db.Assessment{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"assessments": assessments})
}

// handleGetAssessment returns one stored assessment
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid assessment ID")
		return
	}

	assessment, err := s.db.GetAssessment(r.Context(), id)
	if err != nil {
		log.Printf("getting assessment failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get assessment")
		return
	}
	if assessment == nil {
		s.errorResponse(w, http.StatusNotFound, "Assessment not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, assessment)
}

// queryLimit parses the limit query parameter with a fallback
func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
