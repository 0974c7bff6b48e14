// Package classify maps raw similarity scores to per-region presence states.
package classify

import (
	"fmt"
	"math"

	"toolcheck/pkg/types"
)

// ErrInvalidConfig indicates an unusable threshold configuration. It is
// fatal at startup, before any region is scored.
var ErrInvalidConfig = fmt.Errorf("invalid classifier configuration")

// Config holds the classification thresholds.
//
// The operating point depends on the prompts and model weights in use, so
// both values are configuration, never hard-coded. The similarity metric
// produces small signed deltas rather than probabilities, hence the small
// default magnitudes.
type Config struct {
	// ConfidenceThreshold is the minimum score for "present" (inclusive).
	ConfidenceThreshold float64 `json:"confidence_threshold" mapstructure:"confidence_threshold"`
	// AbsenceMargin widens the band below the threshold in which a region
	// is "uncertain" rather than confidently "missing".
	AbsenceMargin float64 `json:"absence_margin" mapstructure:"absence_margin"`
}

// DefaultConfig returns the thresholds tuned for CLIP ViT-B/32 prompts.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.005,
		AbsenceMargin:       0.005,
	}
}

// Validate checks that the thresholds define a usable operating point.
func (c Config) Validate() error {
	if math.IsNaN(c.ConfidenceThreshold) || math.IsInf(c.ConfidenceThreshold, 0) {
		return fmt.Errorf("%w: confidence_threshold must be finite", ErrInvalidConfig)
	}
	if math.IsNaN(c.AbsenceMargin) || math.IsInf(c.AbsenceMargin, 0) {
		return fmt.Errorf("%w: absence_margin must be finite", ErrInvalidConfig)
	}
	if c.AbsenceMargin < 0 {
		return fmt.Errorf("%w: absence_margin must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Classifier assigns a presence status to a region score.
type Classifier struct {
	config Config
}

// New creates a classifier, rejecting invalid thresholds up front.
func New(config Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{config: config}, nil
}

// Classify maps a confidence score to a presence status.
//
// The threshold is an inclusive lower bound: a score exactly equal to it is
// "present". Below the threshold the region is "uncertain" until the gap
// exceeds the absence margin, then "missing". Scoring failures are handled
// by the caller and never reach this method.
func (c *Classifier) Classify(score float64) types.Status {
	switch {
	case score >= c.config.ConfidenceThreshold:
		return types.StatusPresent
	case score >= c.config.ConfidenceThreshold-c.config.AbsenceMargin:
		return types.StatusUncertain
	default:
		return types.StatusMissing
	}
}

// Config returns the thresholds the classifier was built with.
func (c *Classifier) Config() Config {
	return c.config
}
