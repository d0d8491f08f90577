// Package documents renders the customer-facing and governance documents
// a lending decision requires: adverse action notices, approval letters,
// and the model documentation sheet.
package documents

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/credit-scorer/internal/types"
)

// maxPrincipalFactors caps the factor list on an adverse action notice.
const maxPrincipalFactors = 4

// fallbackReasons is used when no model attribution is available.
var fallbackReasons = []string{
	"Insufficient credit history",
	"Debt obligations high relative to income",
	"Limited evidence of stable income",
	"Recent delinquency or default history",
}

// AdverseActionData fills the adverse action notice template.
type AdverseActionData struct {
	ApplicationID   string
	ApplicantName   string
	ApplicationDate string
	DecisionDate    string
	CreditScore     int
	ScoreRangeLow   int
	ScoreRangeHigh  int
	Factors         []string
}

// ApprovalData fills the approval letter template.
type ApprovalData struct {
	ApplicationID   string
	ApplicantName   string
	DecisionDate    string
	LoanAmount      float64
	InterestRate    float64
	TermDays        int
	CreditScore     int
	Conditional     bool
}

// ModelDocData fills the model documentation sheet.
type ModelDocData struct {
	ModelType          string
	TrainingDate       string
	PerformanceMetrics string
	FeatureList        []string
	TrainingSamples    int
}

// Generator renders decision documents from parsed templates.
type Generator struct {
	adverse  *template.Template
	approval *template.Template
	modelDoc *template.Template
}

// NewGenerator parses the built-in templates.
func NewGenerator() *Generator {
	funcs := template.FuncMap{
		"join": strings.Join,
	}
	return &Generator{
		adverse:  template.Must(template.New("adverse").Funcs(funcs).Parse(adverseActionTemplate)),
		approval: template.Must(template.New("approval").Funcs(funcs).Parse(approvalTemplate)),
		modelDoc: template.Must(template.New("modeldoc").Funcs(funcs).Parse(modelDocTemplate)),
	}
}

// AdverseActionNotice renders an FCRA-style notice. Empty fields get
// neutral defaults so a partially-filled application still produces a
// valid notice.
func (g *Generator) AdverseActionNotice(data AdverseActionData) (string, error) {
	if data.ApplicantName == "" {
		data.ApplicantName = "Applicant"
	}
	if data.DecisionDate == "" {
		data.DecisionDate = time.Now().Format("2006-01-02")
	}
	if data.ApplicationDate == "" {
		data.ApplicationDate = data.DecisionDate
	}
	if data.ScoreRangeLow == 0 && data.ScoreRangeHigh == 0 {
		data.ScoreRangeLow, data.ScoreRangeHigh = 300, 850
	}
	if len(data.Factors) == 0 {
		data.Factors = fallbackReasons
	}
	if len(data.Factors) > maxPrincipalFactors {
		data.Factors = data.Factors[:maxPrincipalFactors]
	}
	return g.render(g.adverse, data)
}

// ApprovalLetter renders the approval or conditional approval letter.
func (g *Generator) ApprovalLetter(data ApprovalData) (string, error) {
	if data.ApplicantName == "" {
		data.ApplicantName = "Applicant"
	}
	if data.DecisionDate == "" {
		data.DecisionDate = time.Now().Format("2006-01-02")
	}
	return g.render(g.approval, data)
}

// ModelDocumentation renders the governance sheet for the trained model.
func (g *Generator) ModelDocumentation(data ModelDocData) (string, error) {
	if data.TrainingDate == "" {
		data.TrainingDate = time.Now().Format("2006-01-02")
	}
	return g.render(g.modelDoc, data)
}

func (g *Generator) render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

// PrincipalFactors extracts up to four human-readable adverse factors
// from a model attribution, most damaging first. A positive factor value
// pushed the default probability up. No usable attribution returns the
// fixed fallback reasons.
func PrincipalFactors(factors []types.Factor) []string {
	var out []string
	for _, f := range factors {
		if f.Value <= 0 {
			continue
		}
		out = append(out, describeFactor(f.Feature))
		if len(out) == maxPrincipalFactors {
			break
		}
	}
	if len(out) == 0 {
		return fallbackReasons
	}
	return out
}

func describeFactor(feature string) string {
	return strings.ReplaceAll(feature, "_", " ")
}
