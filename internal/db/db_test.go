package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepConstants(t *testing.T) {
	// Verify step constants are defined
	steps := []string{
		StepDataset,
		StepTaxonomy,
		StepTrainReport,
		StepBundleInfo,
	}

	for _, step := range steps {
		assert.NotEmpty(t, step, "step constant should not be empty")
	}
}

func TestRunType(t *testing.T) {
	run := Run{
		ModelType: "ensemble",
		Status:    RunStatusRunning,
		Samples:   1000,
	}

	assert.Equal(t, "ensemble", run.ModelType)
	assert.Equal(t, "running", run.Status)
	assert.Equal(t, 1000, run.Samples)
	assert.Nil(t, run.CompletedAt)
}

func TestAssessmentType(t *testing.T) {
	a := Assessment{
		ApplicationID:    "APP-1",
		BorrowerID:       "BOR-1",
		CreditScore:      712,
		TraditionalScore: 68.2,
		AlternativeScore: 71.5,
		Decision:         "Conditionally Approved",
		Compliant:        true,
	}

	assert.Equal(t, "APP-1", a.ApplicationID)
	assert.Nil(t, a.Probability)
	assert.True(t, a.Compliant)
}
