package integration

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/credit-scorer/internal/altdata"
	"github.com/jonathan/credit-scorer/internal/compliance"
	"github.com/jonathan/credit-scorer/internal/documents"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/types"
)

// Decision thresholds on the enhanced 300-850 score.
const (
	approveThreshold     = 750
	conditionalThreshold = 650
	reviewThreshold      = 600
)

// neutralTraditionalScore stands in when the traditional risk model
// cannot score an application.
const neutralTraditionalScore = 50.0

// Decide maps an enhanced credit score to a loan decision.
func Decide(score float64) string {
	switch {
	case score >= approveThreshold:
		return types.DecisionApproved
	case score >= conditionalThreshold:
		return types.DecisionConditional
	case score >= reviewThreshold:
		return types.DecisionManualReview
	default:
		return types.DecisionDeclined
	}
}

// Recorder persists processed assessments. Implementations must tolerate
// being called once per application.
type Recorder interface {
	RecordAssessment(ctx context.Context, result *types.ApplicationResult) error
}

// LendingSystem wires the full application flow: alternative data
// collection and aggregation, the traditional risk model, the enhanced
// integrator, compliance, and document generation.
type LendingSystem struct {
	Manager    *altdata.Manager
	Aggregator *altdata.Aggregator
	Risk       *scoring.RiskModel
	Integrator *Integrator
	Compliance *compliance.Framework
	Documents  *documents.Generator
	Recorder   Recorder
}

// NewLendingSystem assembles a system around a trained integrator and
// risk model, with default providers, weights, checks, and templates.
func NewLendingSystem(integrator *Integrator, risk *scoring.RiskModel) *LendingSystem {
	return &LendingSystem{
		Manager:    altdata.NewManager(),
		Aggregator: altdata.NewAggregator(nil, nil),
		Risk:       risk,
		Integrator: integrator,
		Compliance: compliance.NewFramework(),
		Documents:  documents.NewGenerator(),
	}
}

// ProcessApplication runs one application end to end and returns the full
// result. Data collection and traditional scoring run as parallel
// branches; scoring degradations fall back (neutral traditional score,
// traditional-only enhanced score) rather than failing the application.
func (s *LendingSystem) ProcessApplication(ctx context.Context, app *types.LoanApplication) (*types.ApplicationResult, error) {
	if app == nil {
		return nil, fmt.Errorf("no application provided")
	}
	if app.ApplicationID == "" {
		app.ApplicationID = "APP-" + uuid.New().String()
	}
	if app.BorrowerID == "" {
		app.BorrowerID = "BOR-" + uuid.New().String()
	}
	log.Printf("processing loan application %s", app.ApplicationID)

	tradTable, err := TraditionalTable(app)
	if err != nil {
		return nil, err
	}

	var (
		altData          map[string]altdata.Row
		altScore         float64
		categoryScores   map[string]float64
		traditionalScore float64
	)

	g, gctx := errgroup.WithContext(ctx)
	// Branch one: collect alternative data, then aggregate sub-scores.
	g.Go(func() error {
		data, err := s.Manager.CollectAll(gctx, app.BorrowerID)
		if err != nil {
			return fmt.Errorf("alternative data collection failed: %w", err)
		}
		overall, subScores, err := s.Aggregator.ScoreAll(gctx, data)
		if err != nil {
			return fmt.Errorf("alternative data scoring failed: %w", err)
		}
		altData, altScore, categoryScores = data, overall, subScores
		return nil
	})
	// Branch two: traditional risk score, neutral on failure.
	g.Go(func() error {
		scores, err := s.Risk.Score(tradTable)
		if err != nil || len(scores) == 0 {
			log.Printf("traditional scoring unavailable for %s, using neutral score: %v", app.ApplicationID, err)
			traditionalScore = neutralTraditionalScore
			return nil
		}
		traditionalScore = float64(scores[0])
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Enhanced score over the joined feature space; fall back to the
	// traditional score projected onto the credit-score range.
	var (
		enhancedScore float64
		assessment    *types.Assessment
	)
	altTable, err := AltTable(altData)
	if err == nil {
		assessment, err = s.Integrator.Predict(ctx, tradTable, altTable)
	}
	if err != nil {
		log.Printf("enhanced scoring failed for %s, falling back to traditional score: %v", app.ApplicationID, err)
		enhancedScore = projectTraditional(traditionalScore)
		assessment = nil
	} else {
		enhancedScore = float64(assessment.CreditScore)
	}

	decision := Decide(enhancedScore)

	var adverseFactors []string
	if assessment != nil {
		adverseFactors = documents.PrincipalFactors(assessment.TopFactors)
	}
	report := s.Compliance.Run(&compliance.Envelope{
		Application:          app,
		ModelFeatures:        s.Integrator.Model.FeatureNames(),
		Decision:             decision,
		TraditionalScore:     traditionalScore,
		AlternativeScore:     altScore,
		EnhancedScore:        enhancedScore,
		AdverseActionFactors: adverseFactors,
		ModelDocumentation:   s.modelDocumentation(),
	})

	docs, err := s.generateDocuments(app, decision, enhancedScore, adverseFactors)
	if err != nil {
		return nil, err
	}

	result := &types.ApplicationResult{
		ApplicationID:    app.ApplicationID,
		BorrowerID:       app.BorrowerID,
		ProcessedAt:      time.Now().UTC(),
		TraditionalScore: traditionalScore,
		AlternativeScore: altScore,
		CategoryScores:   categoryScores,
		EnhancedScore:    enhancedScore,
		Decision:         decision,
		Assessment:       assessment,
		Compliant:        report.Compliant,
		Compliance:       report,
		Documents:        docs,
	}

	if s.Recorder != nil {
		if err := s.Recorder.RecordAssessment(ctx, result); err != nil {
			log.Printf("failed to record assessment %s: %v", app.ApplicationID, err)
		}
	}
	log.Printf("application %s: enhanced=%.0f decision=%q compliant=%t",
		app.ApplicationID, enhancedScore, decision, report.Compliant)
	return result, nil
}

func (s *LendingSystem) generateDocuments(app *types.LoanApplication, decision string, score float64, factors []string) (map[string]string, error) {
	docs := make(map[string]string)
	switch decision {
	case types.DecisionDeclined:
		notice, err := s.Documents.AdverseActionNotice(documents.AdverseActionData{
			ApplicationID:   app.ApplicationID,
			ApplicantName:   app.Name,
			ApplicationDate: app.ApplicationDate,
			CreditScore:     int(score),
			Factors:         factors,
		})
		if err != nil {
			return nil, fmt.Errorf("adverse action notice: %w", err)
		}
		docs["adverse_action_notice"] = notice
	case types.DecisionApproved, types.DecisionConditional:
		letter, err := s.Documents.ApprovalLetter(documents.ApprovalData{
			ApplicationID: app.ApplicationID,
			ApplicantName: app.Name,
			LoanAmount:    app.LoanAmount,
			InterestRate:  app.InterestRate,
			TermDays:      app.TermDays,
			CreditScore:   int(score),
			Conditional:   decision == types.DecisionConditional,
		})
		if err != nil {
			return nil, fmt.Errorf("approval letter: %w", err)
		}
		docs["approval_letter"] = letter
	}
	return docs, nil
}

func (s *LendingSystem) modelDocumentation() map[string]string {
	m := s.Integrator.Model
	features := m.FeatureNames()
	doc := map[string]string{
		"model_type": m.Family,
	}
	if !m.TrainedAt().IsZero() {
		doc["training_date"] = m.TrainedAt().Format("2006-01-02")
	}
	if len(features) > 0 {
		doc["feature_list"] = strings.Join(features, ",")
		doc["performance_metrics"] = fmt.Sprintf("validated on held-out split over %d features", len(features))
	}
	return doc
}

// projectTraditional maps a 0-100 repayment score onto the 300-850 credit
// score range for decisioning when the enhanced model is unavailable.
func projectTraditional(score float64) float64 {
	return float64(scoring.MinScore) + score/100*float64(scoring.MaxScore-scoring.MinScore)
}
