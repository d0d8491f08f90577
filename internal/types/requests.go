package types

import (
	"github.com/go-playground/validator/v10"
)

// TrainRequest starts a training run, either on a generated synthetic
// dataset (Samples > 0) or on a CSV dataset path.
type TrainRequest struct {
	ModelType   string `json:"model_type"`
	CVFolds     int    `json:"cv_folds" validate:"omitempty,gte=2"`
	RandomState int64  `json:"random_state"`
	Samples     int    `json:"samples" validate:"omitempty,gte=50"`
	DatasetPath string `json:"dataset,omitempty"`
}

// Validate validates the TrainRequest using the validator.
func (r *TrainRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
