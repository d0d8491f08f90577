package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a scoring run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	ModelType   string     `json:"model_type"`
	Status      string     `json:"status"`
	Samples     int        `json:"samples"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact step constants for known artifact types
const (
	StepDataset     = "dataset_summary"
	StepTaxonomy    = "feature_taxonomy"
	StepTrainReport = "train_report"
	StepBundleInfo  = "bundle_info"
)

// Artifact category constants
const (
	CategoryData     = "data"
	CategoryTraining = "training"
	CategoryModel    = "model"
)

// Assessment represents a stored application assessment record
type Assessment struct {
	ID               uuid.UUID `json:"id"`
	ApplicationID    string    `json:"application_id"`
	BorrowerID       string    `json:"borrower_id"`
	CreditScore      float64   `json:"credit_score"`
	Probability      *float64  `json:"probability,omitempty"`
	TraditionalScore float64   `json:"traditional_score"`
	AlternativeScore float64   `json:"alternative_score"`
	Decision         string    `json:"decision"`
	Compliant        bool      `json:"compliant"`
	CreatedAt        time.Time `json:"created_at"`
}
