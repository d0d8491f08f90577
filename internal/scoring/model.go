// Package scoring provides the trained credit-scoring model facade: feature
// engineering, preprocessing, cross-validated training, explanation, score
// conversion, and bundle persistence, plus the traditional loan risk model.
package scoring

import (
	"context"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/explain"
	"github.com/jonathan/credit-scorer/internal/features"
	"github.com/jonathan/credit-scorer/internal/model"
	"github.com/jonathan/credit-scorer/internal/preprocess"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
)

const (
	// heldOutFraction of rows is reserved for validation metrics.
	heldOutFraction = 0.2
	// explainerSampleCap bounds the background sample handed to the
	// attribution explainer.
	explainerSampleCap = 100
)

// FeatureImportance is one named importance value, sorted descending in
// reports and bundles.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// TrainOptions controls a single training call.
type TrainOptions struct {
	EngineerFeatures      bool
	SearchHyperparameters bool
}

// DefaultTrainOptions enables feature engineering and hyperparameter
// search, matching the standard pipeline.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{EngineerFeatures: true, SearchHyperparameters: true}
}

// PredictOptions controls prediction calls.
type PredictOptions struct {
	EngineerFeatures bool
}

// TrainReport summarizes one completed training call.
type TrainReport struct {
	Family        string              `json:"family"`
	BestConfig    string              `json:"best_config,omitempty"`
	Metrics       model.Metrics       `json:"metrics"`
	Importance    []FeatureImportance `json:"importance,omitempty"`
	FeatureCount  int                 `json:"feature_count"`
	TrainRows     int                 `json:"train_rows"`
	ValidateRows  int                 `json:"validate_rows"`
	ExplainerOK   bool                `json:"explainer_ok"`
	TrainDuration time.Duration       `json:"train_duration"`
}

// Model orchestrates the scoring pipeline. A zero Model is untrained;
// Train or Load must succeed before Predict. Instances are not safe for
// concurrent use; callers serialize access.
type Model struct {
	Family  string
	CVFolds int
	Seed    int64

	plan       *preprocess.Plan
	classifier model.Classifier
	tax        taxonomy.Taxonomy
	engineered bool
	importance []FeatureImportance
	explainer  explain.Explainer
	trainedAt  time.Time
}

// NewModel returns an untrained model for the family. Unknown family keys
// fall back to the default ensemble and are logged, never rejected.
func NewModel(family string, cvFolds int, seed int64) *Model {
	normalized := model.Normalize(family)
	if normalized != family {
		log.Printf("unknown model type %q, using %q", family, normalized)
	}
	if cvFolds < 2 {
		cvFolds = 5
	}
	return &Model{Family: normalized, CVFolds: cvFolds, Seed: seed}
}

// Trained reports whether the model can serve predictions.
func (m *Model) Trained() bool {
	return m.classifier != nil && m.plan != nil && m.plan.Fitted
}

// Train fits the full pipeline: optional feature engineering, taxonomy
// classification, preprocessing-plan fitting on the training split only,
// cross-validated grid search when the family has a grid, held-out metric
// computation, importance extraction, and explainer construction.
func (m *Model) Train(ctx context.Context, table *dataset.Table, y []int, opts TrainOptions) (*TrainReport, error) {
	started := time.Now()

	if table == nil || table.NumRows() == 0 || table.NumCols() == 0 {
		return nil, ErrEmptyDataset
	}
	if err := checkBinaryTarget(y, table.NumRows()); err != nil {
		return nil, err
	}

	working := table
	if opts.EngineerFeatures {
		engineered, err := features.Apply(table, taxonomy.Classify(table))
		if err != nil {
			return nil, fmt.Errorf("feature engineering failed: %w", err)
		}
		working = engineered
	}
	m.engineered = opts.EngineerFeatures
	m.tax = taxonomy.Classify(working)

	trainIdx, testIdx := model.StratifiedSplit(y, heldOutFraction, m.Seed)
	trainTable, err := working.Rows(trainIdx)
	if err != nil {
		return nil, err
	}
	testTable, err := working.Rows(testIdx)
	if err != nil {
		return nil, err
	}
	trainY := gatherLabels(y, trainIdx)
	testY := gatherLabels(y, testIdx)

	m.plan = preprocess.Build(m.tax)
	trainX, featureNames, err := m.plan.FitTransform(trainTable)
	if err != nil {
		return nil, fmt.Errorf("preprocessing fit failed: %w", err)
	}
	testX, _, err := m.plan.Transform(testTable)
	if err != nil {
		return nil, fmt.Errorf("preprocessing of validation split failed: %w", err)
	}

	report := &TrainReport{
		Family:       m.Family,
		FeatureCount: len(featureNames),
		TrainRows:    len(trainX),
		ValidateRows: len(testX),
	}

	grid := model.Grid(m.Family, m.Seed)
	if opts.SearchHyperparameters && len(grid) > 0 {
		result, err := model.GridSearch(ctx, grid, trainX, trainY, m.CVFolds, m.Seed)
		if err != nil {
			return nil, fmt.Errorf("grid search failed: %w", err)
		}
		log.Printf("grid search over %d candidates: best %s (cv roc_auc=%.4f)",
			len(grid), result.BestDesc, result.BestScore)
		m.classifier = grid[result.BestIndex].Make()
		report.BestConfig = result.BestDesc
	} else {
		m.classifier = model.New(m.Family, m.Seed)
	}

	if err := m.classifier.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("classifier fit failed: %w", err)
	}

	probs, err := m.classifier.PredictProba(testX)
	if err != nil {
		return nil, fmt.Errorf("validation prediction failed: %w", err)
	}
	report.Metrics = model.Evaluate(testY, probs)
	log.Printf("validation metrics (%s): accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f roc_auc=%.4f avg_precision=%.4f",
		m.Family, report.Metrics.Accuracy, report.Metrics.Precision, report.Metrics.Recall,
		report.Metrics.F1, report.Metrics.ROCAUC, report.Metrics.AveragePrecision)

	m.importance = rankImportance(m.classifier, featureNames)
	report.Importance = m.importance

	background := trainX
	if len(background) > explainerSampleCap {
		background = background[:explainerSampleCap]
	}
	explainer, err := explain.New(m.classifier, background, m.Seed)
	if err != nil {
		// Explanations degrade to prediction-only output.
		log.Printf("explainer construction failed, continuing without explanations: %v", err)
	} else {
		m.explainer = explainer
		report.ExplainerOK = true
	}

	m.trainedAt = time.Now().UTC()
	report.TrainDuration = time.Since(started)
	return report, nil
}

// Predict returns the positive-class (default) probability per row.
func (m *Model) Predict(ctx context.Context, table *dataset.Table, opts PredictOptions) ([]float64, error) {
	_, probs, err := m.processAndPredict(table, opts)
	return probs, err
}

// PredictWithExplanation returns probabilities plus per-row attribution
// values. A missing or failing explainer degrades to an empty explanation
// rather than an error.
func (m *Model) PredictWithExplanation(ctx context.Context, table *dataset.Table, opts PredictOptions) ([]float64, *explain.Explanation, error) {
	processed, probs, err := m.processAndPredict(table, opts)
	if err != nil {
		return nil, nil, err
	}

	explanation := &explain.Explanation{FeatureNames: m.plan.FeatureNames()}
	if m.explainer == nil {
		return probs, explanation, nil
	}
	result, err := m.explainer.Explain(processed)
	if err != nil {
		log.Printf("explanation failed, returning probabilities only: %v", err)
		return probs, explanation, nil
	}
	result.FeatureNames = m.plan.FeatureNames()
	return probs, result, nil
}

func (m *Model) processAndPredict(table *dataset.Table, opts PredictOptions) ([][]float64, []float64, error) {
	if !m.Trained() {
		return nil, nil, ErrNotTrained
	}

	working := table
	if opts.EngineerFeatures && m.engineered {
		engineered, err := features.Apply(table, taxonomy.Classify(table))
		if err != nil {
			return nil, nil, fmt.Errorf("feature engineering failed: %w", err)
		}
		working = engineered
	}

	processed, _, err := m.plan.Transform(working)
	if err != nil {
		return nil, nil, fmt.Errorf("preprocessing failed: %w", err)
	}
	probs, err := m.classifier.PredictProba(processed)
	if err != nil {
		return nil, nil, err
	}
	return processed, probs, nil
}

// Importance returns the descending feature importances recorded at train
// time, nil when the family exposes none.
func (m *Model) Importance() []FeatureImportance {
	return m.importance
}

// FeatureNames returns the processed feature names, nil when untrained.
func (m *Model) FeatureNames() []string {
	if m.plan == nil {
		return nil
	}
	return m.plan.FeatureNames()
}

// Taxonomy returns the column partition snapshot taken at train time.
func (m *Model) Taxonomy() taxonomy.Taxonomy {
	return m.tax
}

// bundle is the gob-encoded persisted form of a trained model. The
// explainer is rebuilt lazily and is deliberately not part of the bundle.
type bundle struct {
	Plan       *preprocess.Plan
	Classifier model.Classifier
	Taxonomy   taxonomy.Taxonomy
	Family     string
	Engineered bool
	Importance []FeatureImportance
	CreatedAt  string
}

// Save writes the trained model as one atomic bundle file: a temp file in
// the target directory followed by a rename, so a partial write is never
// loadable.
func (m *Model) Save(path string) error {
	if !m.Trained() {
		return ErrNotTrained
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bundle directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return fmt.Errorf("failed to create temp bundle: %w", err)
	}
	defer os.Remove(tmp.Name())

	b := bundle{
		Plan:       m.plan,
		Classifier: m.classifier,
		Taxonomy:   m.tax,
		Family:     m.Family,
		Engineered: m.engineered,
		Importance: m.importance,
		CreatedAt:  m.trainedAt.Format(time.RFC3339),
	}
	if err := gob.NewEncoder(tmp).Encode(&b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move bundle into place: %w", err)
	}
	return nil
}

// Load restores a bundle. A missing file is logged and leaves the model
// untrained; a corrupt file is an error.
func (m *Model) Load(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Printf("model bundle %s not found, model remains untrained", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	var b bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return fmt.Errorf("failed to decode bundle %s: %w", path, err)
	}

	m.plan = b.Plan
	m.classifier = b.Classifier
	m.tax = b.Taxonomy
	m.Family = b.Family
	m.engineered = b.Engineered
	m.importance = b.Importance
	if t, err := time.Parse(time.RFC3339, b.CreatedAt); err == nil {
		m.trainedAt = t
	}
	// The explainer is not persisted; explanations degrade until the next
	// training call.
	m.explainer = nil
	return nil
}

// TrainedAt returns the bundle creation time (zero when untrained).
func (m *Model) TrainedAt() time.Time {
	return m.trainedAt
}

func checkBinaryTarget(y []int, rows int) error {
	if len(y) != rows {
		return fmt.Errorf("target has %d values for %d rows: %w", len(y), rows, ErrNonBinaryTarget)
	}
	seen := [2]bool{}
	for _, label := range y {
		if label != 0 && label != 1 {
			return ErrNonBinaryTarget
		}
		seen[label] = true
	}
	if !seen[0] || !seen[1] {
		return ErrNonBinaryTarget
	}
	return nil
}

func gatherLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}

func rankImportance(clf model.Classifier, names []string) []FeatureImportance {
	reporter, ok := clf.(model.ImportanceReporter)
	if !ok {
		return nil
	}
	values := reporter.FeatureImportances()
	if values == nil {
		return nil
	}
	out := make([]FeatureImportance, 0, len(values))
	for j, v := range values {
		name := fmt.Sprintf("feature_%d", j)
		if j < len(names) {
			name = names[j]
		}
		out = append(out, FeatureImportance{Feature: name, Value: v})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value > out[b].Value })
	return out
}
