// Package pipeline provides the high-level orchestration for training runs.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/db"
	"github.com/jonathan/credit-scorer/internal/integration"
	"github.com/jonathan/credit-scorer/internal/observability"
	"github.com/jonathan/credit-scorer/internal/pipeline/steps"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/synthetic"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for a training run
type RunOptions struct {
	ModelType     string
	CVFolds       int
	RandomState   int64
	AltDataWeight float64
	Samples       int    // synthetic dataset size, used when DatasetPath is empty
	DatasetPath   string // CSV with a "default" target column
	ModelPath     string // bundle destination; empty skips saving
	DatabaseURL   string
	Verbose       bool
	OnProgress    ProgressCallback
}

// Result summarizes a completed training run
type Result struct {
	RunID        uuid.UUID               `json:"run_id,omitempty"`
	Report       *scoring.TrainReport    `json:"report"`
	Rows         int                     `json:"rows"`
	PositiveRate float64                 `json:"positive_rate"`
	ModelPath    string                  `json:"model_path,omitempty"`
	Integrator   *integration.Integrator `json:"-"`
}

// datasetSummary is the artifact stored for the dataset step
type datasetSummary struct {
	Rows         int      `json:"rows"`
	Columns      []string `json:"columns"`
	PositiveRate float64  `json:"positive_rate"`
	Source       string   `json:"source"`
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, category, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Category: category, Message: message})
	}
}

// RunTraining executes the training pipeline: dataset, taxonomy, model
// training, bundle persistence. Artifacts are stored in PostgreSQL when a
// database URL is configured; persistence failures never abort the run.
func RunTraining(ctx context.Context, opts RunOptions) (*Result, error) {
	printer := observability.NewPrinter(os.Stdout)

	// Initialize database connection if configured
	var database *db.DB
	var runID uuid.UUID
	if opts.DatabaseURL != "" {
		var err error
		database, err = db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without database persistence...\n")
			database = nil
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				fmt.Printf("Warning: Migration failed: %v\n", err)
			}
		}
	}

	completed := make(map[string]bool, len(steps.Registry))

	// Step 1: Load or generate the dataset
	if err := steps.ValidateDependencies(completed, db.StepDataset); err != nil {
		return nil, err
	}
	var source string
	if opts.DatasetPath != "" {
		fmt.Printf("Step 1/4: Loading dataset from %s...\n", opts.DatasetPath)
		source = opts.DatasetPath
	} else {
		fmt.Printf("Step 1/4: Generating %d synthetic applicants...\n", opts.Samples)
		source = "synthetic"
	}
	table, y, err := loadDataset(opts)
	if err != nil {
		return nil, fmt.Errorf("dataset step failed: %w", err)
	}
	completed[db.StepDataset] = true

	positives := 0
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	positiveRate := 0.0
	if len(y) > 0 {
		positiveRate = float64(positives) / float64(len(y))
	}
	emitProgress(&opts, db.StepDataset, db.CategoryData,
		fmt.Sprintf("Loaded %d rows (%.1f%% positive)", table.NumRows(), positiveRate*100))

	if database != nil {
		runID, err = database.CreateRun(ctx, opts.ModelType, table.NumRows())
		if err != nil {
			fmt.Printf("Warning: Failed to create database run: %v\n", err)
		} else {
			_ = database.SaveArtifact(ctx, runID, db.StepDataset, db.CategoryData, datasetSummary{
				Rows:         table.NumRows(),
				Columns:      table.Names(),
				PositiveRate: positiveRate,
				Source:       source,
			})
		}
	}

	// Step 2: Classify the feature taxonomy
	if err := steps.ValidateDependencies(completed, db.StepTaxonomy); err != nil {
		return nil, err
	}
	fmt.Printf("Step 2/4: Classifying feature taxonomy...\n")
	tax := taxonomy.Classify(table)
	completed[db.StepTaxonomy] = true
	if opts.Verbose {
		printer.PrintTaxonomy(tax)
	}
	emitProgress(&opts, db.StepTaxonomy, db.CategoryData,
		fmt.Sprintf("Partitioned %d traditional and %d alternative features",
			len(tax.Traditional()), len(tax.Alternative())))
	if database != nil && runID != uuid.Nil {
		_ = database.SaveArtifact(ctx, runID, db.StepTaxonomy, db.CategoryData, tax)
	}

	// Step 3: Train the enhanced model
	if err := steps.ValidateDependencies(completed, db.StepTrainReport); err != nil {
		return nil, err
	}
	fmt.Printf("Step 3/4: Training %s model...\n", opts.ModelType)
	trad, err := table.Select(tax.Traditional())
	if err != nil {
		return nil, fmt.Errorf("selecting traditional features: %w", err)
	}
	var alt *dataset.Table
	if names := tax.Alternative(); len(names) > 0 {
		alt, err = table.Select(names)
		if err != nil {
			return nil, fmt.Errorf("selecting alternative features: %w", err)
		}
	}

	integrator := integration.NewIntegrator(
		scoring.NewModel(opts.ModelType, opts.CVFolds, opts.RandomState),
		opts.AltDataWeight,
	)
	report, err := integrator.Train(ctx, trad, alt, y, scoring.DefaultTrainOptions())
	if err != nil {
		if database != nil && runID != uuid.Nil {
			_ = database.CompleteRun(ctx, runID, db.RunStatusFailed)
		}
		return nil, fmt.Errorf("training failed: %w", err)
	}
	completed[db.StepTrainReport] = true
	if opts.Verbose {
		printer.PrintTrainReport(report)
	}
	emitProgress(&opts, db.StepTrainReport, db.CategoryTraining,
		fmt.Sprintf("Trained %s (ROC-AUC %.4f)", report.Family, report.Metrics.ROCAUC))
	if database != nil && runID != uuid.Nil {
		_ = database.SaveArtifact(ctx, runID, db.StepTrainReport, db.CategoryTraining, report)
	}

	// Step 4: Persist the model bundle
	if err := steps.ValidateDependencies(completed, db.StepBundleInfo); err != nil {
		return nil, err
	}
	if opts.ModelPath != "" {
		fmt.Printf("Step 4/4: Saving model bundle to %s...\n", opts.ModelPath)
		if dir := filepath.Dir(opts.ModelPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating bundle directory: %w", err)
			}
		}
		if err := integrator.Model.Save(opts.ModelPath); err != nil {
			if database != nil && runID != uuid.Nil {
				_ = database.CompleteRun(ctx, runID, db.RunStatusFailed)
			}
			return nil, fmt.Errorf("saving bundle failed: %w", err)
		}
		emitProgress(&opts, db.StepBundleInfo, db.CategoryModel,
			fmt.Sprintf("Saved bundle to %s", opts.ModelPath))
		if database != nil && runID != uuid.Nil {
			_ = database.SaveArtifact(ctx, runID, db.StepBundleInfo, db.CategoryModel, map[string]any{
				"path":   opts.ModelPath,
				"family": report.Family,
			})
		}
	} else {
		fmt.Printf("Step 4/4: No model path configured, skipping bundle save.\n")
	}
	completed[db.StepBundleInfo] = true

	if database != nil && runID != uuid.Nil {
		_ = database.CompleteRun(ctx, runID, db.RunStatusCompleted)
	}

	return &Result{
		RunID:        runID,
		Report:       report,
		Rows:         table.NumRows(),
		PositiveRate: positiveRate,
		ModelPath:    opts.ModelPath,
		Integrator:   integrator,
	}, nil
}

// loadDataset reads the configured CSV (splitting off the target column) or
// generates a synthetic dataset in the serving vocabulary.
func loadDataset(opts RunOptions) (*dataset.Table, []int, error) {
	if opts.DatasetPath == "" {
		table, y, err := synthetic.Generate(opts.Samples, opts.RandomState, true)
		if err != nil {
			return nil, nil, err
		}
		view, err := synthetic.ServingView(table)
		if err != nil {
			return nil, nil, err
		}
		return view, y, nil
	}

	f, err := os.Open(opts.DatasetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	table, err := dataset.FromCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing dataset: %w", err)
	}

	target, ok := table.Column(synthetic.TargetColumn)
	if !ok {
		return nil, nil, fmt.Errorf("dataset is missing target column %q", synthetic.TargetColumn)
	}
	y := make([]int, len(target.Floats))
	for i, v := range target.Floats {
		if v != 0 {
			y[i] = 1
		}
	}

	var featureNames []string
	for _, name := range table.Names() {
		if name != synthetic.TargetColumn {
			featureNames = append(featureNames, name)
		}
	}
	features, err := table.Select(featureNames)
	if err != nil {
		return nil, nil, err
	}
	return features, y, nil
}
