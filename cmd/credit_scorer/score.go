package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/credit-scorer/internal/config"
	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/synthetic"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score applicants with a trained model bundle",
	Long: `Loads a trained model bundle and scores applicant feature rows from a
CSV or JSON file, printing default probabilities, credit scores, and the
strongest feature contributions.`,
	RunE: runScore,
}

var (
	scoreConfigPath string
	scoreModelPath  string
	scoreInput      string
	scoreTop        int
)

func init() {
	scoreCmd.Flags().StringVar(&scoreConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	scoreCmd.Flags().StringVar(&scoreModelPath, "model-path", "", "Path to the trained model bundle")
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "", "Applicant feature rows (.csv or .json)")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 3, "Number of feature contributions to print per applicant (0 disables)")

	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(scoreConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("model-path") {
			cfg.ModelPath = scoreModelPath
		}
	})
	if err != nil {
		return err
	}

	model := scoring.NewModel(cfg.ModelType, cfg.CVFolds, cfg.RandomState)
	if err := model.Load(cfg.ModelPath); err != nil {
		return err
	}

	table, err := loadApplicants(scoreInput)
	if err != nil {
		return err
	}

	probs, explanation, err := model.PredictWithExplanation(context.Background(),
		table, scoring.PredictOptions{EngineerFeatures: true})
	if err != nil {
		return err
	}

	for i, p := range probs {
		fmt.Printf("applicant %d: default probability %.4f, credit score %d\n",
			i+1, p, scoring.ProbabilityToScore(p))
		if explanation == nil || scoreTop <= 0 {
			continue
		}
		contributions, err := explanation.TopContributions(i, scoreTop)
		if err != nil {
			continue
		}
		for _, c := range contributions {
			fmt.Printf("  %-36s %+.4f\n", c.Feature, c.Value)
		}
	}
	return nil
}

// loadApplicants reads feature rows from a CSV file or a JSON file holding
// an object or an array of objects. A target column, if present, is dropped.
func loadApplicants(path string) (*dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		table, err := dataset.FromCSV(f)
		if err != nil {
			return nil, fmt.Errorf("parsing input: %w", err)
		}
		return dropTarget(table)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		return tableFromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .csv or .json)", filepath.Ext(path))
	}
}

func dropTarget(table *dataset.Table) (*dataset.Table, error) {
	if !table.Has(synthetic.TargetColumn) {
		return table, nil
	}
	var names []string
	for _, name := range table.Names() {
		if name != synthetic.TargetColumn {
			names = append(names, name)
		}
	}
	return table.Select(names)
}

func tableFromJSON(data []byte) (*dataset.Table, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		var single map[string]any
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parsing input JSON: %w", err)
		}
		rows = []map[string]any{single}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no applicant rows in input")
	}

	nameSet := make(map[string]bool)
	for _, row := range rows {
		for name := range row {
			nameSet[name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		if name != synthetic.TargetColumn {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	table := dataset.New()
	for _, name := range names {
		values := make([]float64, len(rows))
		for i, row := range rows {
			v, ok := row[name]
			if !ok {
				values[i] = math.NaN()
				continue
			}
			switch typed := v.(type) {
			case float64:
				values[i] = typed
			case bool:
				if typed {
					values[i] = 1
				}
			default:
				return nil, fmt.Errorf("column %q has non-numeric value %v", name, v)
			}
		}
		if err := table.AddNumeric(name, values); err != nil {
			return nil, err
		}
	}
	return table, nil
}
