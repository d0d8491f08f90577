// Package steps provides step definitions and dependency validation for
// the training pipeline.
package steps

import (
	"fmt"
	"sort"

	"github.com/jonathan/credit-scorer/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// Registry holds all step definitions for a training run
var Registry = map[string]StepDefinition{
	db.StepDataset: {
		Name:         db.StepDataset,
		Category:     db.CategoryData,
		Dependencies: []string{},
	},
	db.StepTaxonomy: {
		Name:         db.StepTaxonomy,
		Category:     db.CategoryData,
		Dependencies: []string{db.StepDataset},
	},
	db.StepTrainReport: {
		Name:         db.StepTrainReport,
		Category:     db.CategoryTraining,
		Dependencies: []string{db.StepDataset, db.StepTaxonomy},
	},
	db.StepBundleInfo: {
		Name:         db.StepBundleInfo,
		Category:     db.CategoryModel,
		Dependencies: []string{db.StepTrainReport},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every required dependency of a step has
// completed.
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := Registry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// ExecutionOrder returns a deterministic topological ordering of all
// registered steps.
func ExecutionOrder() ([]string, error) {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var order []string
	completed := make(map[string]bool, len(Registry))
	for len(order) < len(Registry) {
		progressed := false
		for _, name := range names {
			if completed[name] {
				continue
			}
			if ValidateDependencies(completed, name) == nil {
				order = append(order, name)
				completed[name] = true
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("dependency cycle among pipeline steps")
		}
	}
	return order, nil
}
