package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/db"
)

func TestValidateDependencies_Met(t *testing.T) {
	completed := map[string]bool{db.StepDataset: true, db.StepTaxonomy: true}
	assert.NoError(t, ValidateDependencies(completed, db.StepTrainReport))
}

func TestValidateDependencies_Missing(t *testing.T) {
	err := ValidateDependencies(map[string]bool{}, db.StepTrainReport)
	require.Error(t, err)

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, db.StepTrainReport, depErr.Step)
	assert.Contains(t, depErr.MissingDependencies, db.StepDataset)
	assert.Contains(t, depErr.MissingDependencies, db.StepTaxonomy)
}

func TestValidateDependencies_UnknownStep(t *testing.T) {
	err := ValidateDependencies(map[string]bool{}, "nope")
	assert.Error(t, err)
}

func TestExecutionOrder(t *testing.T) {
	order, err := ExecutionOrder()
	require.NoError(t, err)
	require.Len(t, order, len(Registry))

	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}
	for name, def := range Registry {
		for _, dep := range def.Dependencies {
			assert.Less(t, position[dep], position[name], "%s must run before %s", dep, name)
		}
	}
}
