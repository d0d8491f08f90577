package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/credit-scorer/internal/config"
	"github.com/jonathan/credit-scorer/internal/pipeline"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a credit scoring model",
	Long: `Trains an ensemble default-risk model on a synthetic dataset or a CSV
file (with a "default" target column), reports validation metrics, and saves
the model bundle.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runTrain,
}

var (
	trainConfigPath  string
	trainModelType   string
	trainCVFolds     int
	trainRandomState int64
	trainSamples     int
	trainDataset     string
	trainModelPath   string
	trainDatabaseURL string
	trainVerbose     bool
)

func init() {
	trainCmd.Flags().StringVar(&trainConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	trainCmd.Flags().StringVarP(&trainModelType, "model-type", "m", "", "Model family (rf, gb, xgb, lgb, nn, stacking, voting, ensemble)")
	trainCmd.Flags().IntVar(&trainCVFolds, "cv-folds", 0, "Cross-validation folds for grid search")
	trainCmd.Flags().Int64Var(&trainRandomState, "random-state", 0, "Random seed for reproducible training")
	trainCmd.Flags().IntVarP(&trainSamples, "samples", "n", 1000, "Synthetic dataset size (ignored with --dataset)")
	trainCmd.Flags().StringVarP(&trainDataset, "dataset", "d", "", "Path to a CSV dataset with a default target column")
	trainCmd.Flags().StringVar(&trainModelPath, "model-path", "", "Where to save the model bundle")
	trainCmd.Flags().StringVar(&trainDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	trainCmd.Flags().BoolVarP(&trainVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(trainConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("model-type") {
			cfg.ModelType = trainModelType
		}
		if cmd.Flags().Changed("cv-folds") {
			cfg.CVFolds = trainCVFolds
		}
		if cmd.Flags().Changed("random-state") {
			cfg.RandomState = trainRandomState
		}
		if cmd.Flags().Changed("model-path") {
			cfg.ModelPath = trainModelPath
		}
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = trainDatabaseURL
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = trainVerbose
		}
	})
	if err != nil {
		return err
	}

	result, err := pipeline.RunTraining(context.Background(), pipeline.RunOptions{
		ModelType:     cfg.ModelType,
		CVFolds:       cfg.CVFolds,
		RandomState:   cfg.RandomState,
		AltDataWeight: cfg.AltDataWeight,
		Samples:       trainSamples,
		DatasetPath:   trainDataset,
		ModelPath:     cfg.ModelPath,
		DatabaseURL:   cfg.DatabaseURL,
		Verbose:       cfg.Verbose,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Trained %s on %d rows (ROC-AUC %.4f, accuracy %.4f)\n",
		result.Report.Family, result.Rows,
		result.Report.Metrics.ROCAUC, result.Report.Metrics.Accuracy)
	if result.ModelPath != "" {
		fmt.Printf("Model bundle saved to %s\n", result.ModelPath)
	}
	return nil
}
