package scoring

import "errors"

// ErrNotTrained is returned by predict, explain, and save operations on a
// model that has neither been trained nor loaded from a bundle.
var ErrNotTrained = errors.New("model is not trained")

// ErrEmptyDataset is returned when training is attempted on a dataset with
// no rows or no columns.
var ErrEmptyDataset = errors.New("training dataset is empty")

// ErrNonBinaryTarget is returned when the training target is not strictly
// binary with both classes present.
var ErrNonBinaryTarget = errors.New("training target must be binary with both classes present")
