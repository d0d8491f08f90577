package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/integration"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/server/ratelimit"
	"github.com/jonathan/credit-scorer/internal/synthetic"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
	"github.com/jonathan/credit-scorer/internal/types"
)

// trainedSystem builds a lending system over a small synthetic dataset.
func trainedSystem(t *testing.T) *integration.LendingSystem {
	t.Helper()

	table, y, err := synthetic.Generate(300, 42, true)
	require.NoError(t, err)
	view, err := synthetic.ServingView(table)
	require.NoError(t, err)

	tax := taxonomy.Classify(view)
	trad, err := view.Select(tax.Traditional())
	require.NoError(t, err)
	alt, err := view.Select(tax.Alternative())
	require.NoError(t, err)

	integrator := integration.NewIntegrator(scoring.NewModel("rf", 2, 42), 0.3)
	_, err = integrator.Train(context.Background(), trad, alt, y, scoring.TrainOptions{})
	require.NoError(t, err)

	risk := scoring.NewRiskModel(2, 42)
	_, err = risk.Train(context.Background(), trad, y)
	require.NoError(t, err)

	return integration.NewLendingSystem(integrator, risk)
}

// newTestServer builds a server around a trained system, without a
// database and with rate limiting disabled unless a config is given.
func newTestServer(t *testing.T, limiterCfg *ratelimit.Config) (*Server, http.Handler) {
	t.Helper()

	if limiterCfg == nil {
		limiterCfg = &ratelimit.Config{Enabled: false}
	}
	s := &Server{
		cfg:         Config{ModelType: "rf", CVFolds: 2, RandomState: 42, AltDataWeight: 0.3},
		rateLimiter: ratelimit.NewLimiter(limiterCfg),
		system:      trainedSystem(t),
	}
	t.Cleanup(s.rateLimiter.Stop)

	return s, s.withRateLimit(s.withLogging(s.withCORS(s.routes())))
}

func applicationJSON() string {
	return `{
		"application_id": "APP-42",
		"borrower_id": "BOR-42",
		"loan_amount": 25000,
		"interest_rate": 5.5,
		"term_days": 1095,
		"credit_score": 720,
		"income": 75000,
		"debt_to_income": 0.3,
		"employment_years": 5,
		"is_collateralized": true,
		"collateral_value": 30000,
		"previous_loans": 2,
		"previous_defaults": 0
	}`
}

func TestHandleHealth(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestScoreApplication(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/applications/score", strings.NewReader(applicationJSON())))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.ApplicationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "APP-42", result.ApplicationID)
	assert.NotEmpty(t, result.Decision)
	assert.GreaterOrEqual(t, result.EnhancedScore, 300.0)
	assert.LessOrEqual(t, result.EnhancedScore, 850.0)
	assert.Len(t, result.CategoryScores, 4)
}

func TestScoreApplication_SchemaRejectsMissingField(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/applications/score",
		strings.NewReader(`{"interest_rate": 5.5, "term_days": 365, "credit_score": 700}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "loan_amount")
}

func TestScoreApplication_MalformedJSON(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/applications/score", strings.NewReader(`{`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRun_TrainsAndSwapsModel(t *testing.T) {
	s, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/runs",
		strings.NewReader(`{"model_type": "rf", "cv_folds": 2, "samples": 100}`)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 100, resp.Rows)
	assert.Equal(t, "rf", resp.ModelType)
	assert.Empty(t, resp.RunID, "no database, no persisted run")

	assert.True(t, s.currentSystem().Integrator.Model.Trained())
}

func TestSwapIntegrator_PublishesNewSystem(t *testing.T) {
	s, _ := newTestServer(t, nil)

	before := s.currentSystem()
	replacement := integration.NewIntegrator(scoring.NewModel("rf", 2, 7), 0.3)
	s.swapIntegrator(replacement)
	after := s.currentSystem()

	assert.NotSame(t, before, after)
	assert.Same(t, replacement, after.Integrator)
	assert.NotSame(t, replacement, before.Integrator, "earlier snapshots keep their integrator")
	assert.Same(t, before.Risk, after.Risk)
	assert.Same(t, before.Manager, after.Manager)
	assert.Same(t, before.Compliance, after.Compliance)
}

func TestSwapIntegrator_ConcurrentWithScoring(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.swapIntegrator(integration.NewIntegrator(scoring.NewModel("rf", 2, int64(i)), 0.3))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			system := s.currentSystem()
			if system.Integrator.Model == nil {
				t.Error("snapshot lost its model")
				return
			}
		}
	}()
	wg.Wait()
}

func TestCreateRun_InvalidRequest(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/runs", strings.NewReader(`{"cv_folds": 1}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cv_folds")
}

func TestStoreEndpoints_WithoutDatabase(t *testing.T) {
	_, handler := newTestServer(t, nil)

	for _, path := range []string{"/runs", "/assessments"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestRateLimit_OverLimitReceives429(t *testing.T) {
	_, handler := newTestServer(t, &ratelimit.Config{
		Enabled:    true,
		ReadLimit:  2,
		ReadWindow: time.Minute,
		Exempt:     []string{"/health"},
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, httptest.NewRequest("GET", "/assessments", nil))
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, last.Header().Get("X-RateLimit-Reset"))
	assert.Contains(t, last.Body.String(), "rate_limit_exceeded")
}

func TestRateLimit_HealthUnlimited(t *testing.T) {
	_, handler := newTestServer(t, &ratelimit.Config{
		Enabled:    true,
		ReadLimit:  1,
		ReadWindow: time.Minute,
		Exempt:     []string{"/health"},
	})

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/applications/score", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
