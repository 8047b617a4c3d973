// Package domain defines the trigger detector contract
package domain

import (
	"context"

	"moderato/internal/core/moderation"
)

// Detection is the detector output: the merged trigger set plus the stage
// status it was produced under. An empty set with StatusOK means "no concern
// detected" and is a valid, meaningful result, not a failure
type Detection struct {
	Triggers moderation.TriggerSet
	Status   moderation.StageStatus
}

// DetectorPort runs all configured classifiers over normalized text and
// merges their outputs. Thresholding is not the detector's job; raw scores
// go out and policy stays with the selector
type DetectorPort interface {
	Detect(ctx context.Context, n moderation.NormalizedUtterance) (Detection, error)
}
