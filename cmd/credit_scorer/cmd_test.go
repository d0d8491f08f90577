package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/config"
	"github.com/jonathan/credit-scorer/internal/dataset"
	"github.com/jonathan/credit-scorer/internal/pipeline"
	"github.com/jonathan/credit-scorer/internal/synthetic"
)

// writeSyntheticCSV runs the synth command into a temp file and returns
// its path.
func writeSyntheticCSV(t *testing.T, samples int, seed int64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dataset.csv")
	synthSamples, synthSeed, synthOutput, synthIncludeAlt = samples, seed, path, true

	require.NoError(t, runSynth(synthCmd, nil))
	return path
}

func TestSynthCommand_WritesDataset(t *testing.T) {
	path := writeSyntheticCSV(t, 120, 7)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	table, err := dataset.FromCSV(f)
	require.NoError(t, err)
	assert.Equal(t, 120, table.NumRows())
	assert.True(t, table.Has(synthetic.TargetColumn))
	assert.True(t, table.Has("borrower_credit_score"))
}

func TestLoadApplicants_CSVDropsTarget(t *testing.T) {
	path := writeSyntheticCSV(t, 50, 11)

	table, err := loadApplicants(path)
	require.NoError(t, err)
	assert.Equal(t, 50, table.NumRows())
	assert.False(t, table.Has(synthetic.TargetColumn))
}

func TestLoadApplicants_JSONObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applicant.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"borrower_credit_score": 700, "borrower_income": 60000}`), 0644))

	table, err := loadApplicants(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.NumRows())
	assert.Equal(t, []string{"borrower_credit_score", "borrower_income"}, table.Names())
}

func TestLoadApplicants_JSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applicants.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"borrower_credit_score": 700}, {"borrower_credit_score": 620}]`), 0644))

	table, err := loadApplicants(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())
}

func TestLoadApplicants_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applicants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0644))

	_, err := loadApplicants(path)
	assert.ErrorContains(t, err, "unsupported input format")
}

func TestLoadApplicants_NonNumericJSONValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applicant.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"borrower_credit_score": "seven hundred"}`), 0644))

	_, err := loadApplicants(path)
	assert.Error(t, err)
}

func TestScoreCommand_EndToEnd(t *testing.T) {
	csvPath := writeSyntheticCSV(t, 200, 42)
	modelPath := filepath.Join(t.TempDir(), "model.bin")

	_, err := pipeline.RunTraining(context.Background(), pipeline.RunOptions{
		ModelType:   "rf",
		CVFolds:     2,
		RandomState: 42,
		DatasetPath: csvPath,
		ModelPath:   modelPath,
	})
	require.NoError(t, err)

	require.NoError(t, scoreCmd.Flags().Set("model-path", modelPath))
	require.NoError(t, scoreCmd.Flags().Set("input", csvPath))
	assert.NoError(t, runScore(scoreCmd, nil))
}

func TestLoadApplication_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"application_id": "APP-1",
		"loan_amount": 25000,
		"interest_rate": 5.5,
		"term_days": 1095,
		"credit_score": 720
	}`), 0644))

	app, err := loadApplication(path)
	require.NoError(t, err)
	assert.Equal(t, "APP-1", app.ApplicationID)
	assert.Equal(t, 25000.0, app.LoanAmount)
}

func TestLoadApplication_SchemaRejectsMissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"interest_rate": 5.5, "term_days": 365, "credit_score": 700}`), 0644))

	_, err := loadApplication(path)
	assert.ErrorContains(t, err, "loan_amount")
}

func TestResolveConfig_FlagOverridesAndDefaults(t *testing.T) {
	t.Setenv("MODEL_TYPE", "")
	t.Setenv("MODEL_PATH", "")

	cfg, err := resolveConfig("", func(cfg *config.Config) {
		cfg.ModelType = "rf"
	})
	require.NoError(t, err)

	assert.Equal(t, "rf", cfg.ModelType)
	assert.Equal(t, config.DefaultCVFolds, cfg.CVFolds)
	assert.Equal(t, config.DefaultAltDataWeight, cfg.AltDataWeight)
}
