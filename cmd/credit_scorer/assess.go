package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/credit-scorer/internal/config"
	"github.com/jonathan/credit-scorer/internal/history"
	"github.com/jonathan/credit-scorer/internal/integration"
	"github.com/jonathan/credit-scorer/internal/observability"
	"github.com/jonathan/credit-scorer/internal/schemas"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/synthetic"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
	"github.com/jonathan/credit-scorer/internal/types"
)

// riskTrainingSamples sizes the synthetic dataset used to fit the
// traditional risk model when assessing from the command line.
const riskTrainingSamples = 500

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Process a loan application end to end",
	Long: `Runs a loan application through the full lending flow: alternative data
collection, traditional and enhanced scoring, compliance checks, and
decision document generation. The application is read from a JSON file.`,
	RunE: runAssess,
}

var (
	assessConfigPath  string
	assessModelPath   string
	assessApplication string
	assessHistoryPath string
	assessJSON        bool
)

func init() {
	assessCmd.Flags().StringVar(&assessConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	assessCmd.Flags().StringVar(&assessModelPath, "model-path", "", "Path to the trained model bundle")
	assessCmd.Flags().StringVarP(&assessApplication, "application", "a", "", "Path to a loan application JSON file")
	assessCmd.Flags().StringVar(&assessHistoryPath, "history", "credit_history.db", "SQLite file for recording assessments (empty disables)")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "Print the full result as JSON instead of formatted output")

	_ = assessCmd.MarkFlagRequired("application")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(assessConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("model-path") {
			cfg.ModelPath = assessModelPath
		}
	})
	if err != nil {
		return err
	}

	app, err := loadApplication(assessApplication)
	if err != nil {
		return err
	}

	system, err := assembleLendingSystem(cfg)
	if err != nil {
		return err
	}

	if assessHistoryPath != "" {
		store, err := history.Open(assessHistoryPath)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()
		system.Recorder = store
	}

	result, err := system.ProcessApplication(context.Background(), app)
	if err != nil {
		return err
	}

	if assessJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintApplicationResult(result)
	printer.PrintCompliance(result.Compliance)
	return nil
}

func loadApplication(path string) (*types.LoanApplication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading application: %w", err)
	}
	if err := schemas.ValidateLoanApplication(data); err != nil {
		return nil, err
	}
	var app types.LoanApplication
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("parsing application: %w", err)
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

// assembleLendingSystem loads the enhanced model bundle and fits the
// traditional risk model on a deterministic synthetic dataset.
func assembleLendingSystem(cfg config.Config) (*integration.LendingSystem, error) {
	model := scoring.NewModel(cfg.ModelType, cfg.CVFolds, cfg.RandomState)
	if cfg.ModelPath != "" {
		if err := model.Load(cfg.ModelPath); err != nil {
			return nil, err
		}
	}
	if !model.Trained() {
		log.Printf("no trained model bundle at %q, enhanced scoring will fall back to the traditional score", cfg.ModelPath)
	}

	risk := scoring.NewRiskModel(cfg.CVFolds, cfg.RandomState)
	if err := fitRiskModel(risk, cfg.RandomState); err != nil {
		return nil, fmt.Errorf("fitting traditional risk model: %w", err)
	}

	integrator := integration.NewIntegrator(model, cfg.AltDataWeight)
	return integration.NewLendingSystem(integrator, risk), nil
}

func fitRiskModel(risk *scoring.RiskModel, seed int64) error {
	table, y, err := synthetic.Generate(riskTrainingSamples, seed, true)
	if err != nil {
		return err
	}
	view, err := synthetic.ServingView(table)
	if err != nil {
		return err
	}
	tax := taxonomy.Classify(view)
	trad, err := view.Select(tax.Traditional())
	if err != nil {
		return err
	}
	_, err = risk.Train(context.Background(), trad, y)
	return err
}
