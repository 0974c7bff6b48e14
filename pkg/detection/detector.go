// Package detection runs the per-region scoring pipeline: crop, score
// against prompt templates, classify.
package detection

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"toolcheck/pkg/classify"
	"toolcheck/pkg/client"
	"toolcheck/pkg/cropper"
	"toolcheck/pkg/processing"
	"toolcheck/pkg/prompts"
	"toolcheck/pkg/types"
)

// ErrNoAnnotations indicates a run with nothing to classify.
var ErrNoAnnotations = fmt.Errorf("no annotated regions")

// Options control how region crops are prepared for the scoring model.
type Options struct {
	// Model is the name passed to the score client.
	Model string
	// SendFormat is the encoding for region crops: jpg or png.
	SendFormat string
	// SendMaxDim caps the long side of a crop before encoding, 0 = original.
	SendMaxDim int
	// SendQuality is the JPEG quality for encoded crops.
	SendQuality int
}

// DefaultOptions returns crop-encoding settings suitable for CLIP-style models.
func DefaultOptions() Options {
	return Options{
		SendFormat:  "jpg",
		SendMaxDim:  336,
		SendQuality: 90,
	}
}

// Detector scores annotated tool-slot regions on a toolbox image.
//
// A detector holds no state across runs. The score client is passed in at
// construction and owned by the caller; one client per worker if runs are
// to proceed in parallel.
type Detector struct {
	client     client.ScoreClient
	classifier *classify.Classifier
	processor  *processing.Processor
	opts       Options
	logger     *zap.Logger
}

// NewDetector creates a detector from its collaborators.
func NewDetector(sc client.ScoreClient, cl *classify.Classifier, opts Options, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SendFormat == "" {
		opts.SendFormat = "jpg"
	}
	if opts.SendQuality <= 0 {
		opts.SendQuality = 90
	}
	return &Detector{
		client:     sc,
		classifier: cl,
		processor:  processing.NewProcessor(),
		opts:       opts,
		logger:     logger,
	}
}

// Run scores every annotated region sequentially.
//
// Per-region failures (empty crop, scorer error) degrade that region to
// status "error" and never abort the run. An empty annotation set is a
// run-level error: there is nothing to classify.
func (d *Detector) Run(ctx context.Context, img image.Image, anns []types.Annotation) ([]types.RegionScore, error) {
	if len(anns) == 0 {
		return nil, ErrNoAnnotations
	}

	results := make([]types.RegionScore, 0, len(anns))
	for i, ann := range anns {
		d.logger.Debug("scoring region",
			zap.Int("index", i+1),
			zap.Int("total", len(anns)),
			zap.Int("region_id", ann.RegionID),
			zap.String("category", ann.Category))
		results = append(results, d.DetectRegion(ctx, img, ann))
	}
	return results, nil
}

// DetectRegion crops, scores and classifies a single region.
func (d *Detector) DetectRegion(ctx context.Context, img image.Image, ann types.Annotation) types.RegionScore {
	start := time.Now()
	result := types.RegionScore{
		RegionID: ann.RegionID,
		Category: ann.Category,
		Box:      ann.Box,
	}

	fail := func(err error) types.RegionScore {
		d.logger.Warn("region scoring failed",
			zap.Int("region_id", ann.RegionID),
			zap.String("category", ann.Category),
			zap.Error(err))
		result.Status = types.StatusError
		result.Detail = err.Error()
		result.Elapsed = time.Since(start)
		return result
	}

	template, ok := prompts.ForCategory(ann.Category)
	if !ok {
		return fail(fmt.Errorf("no prompt template for category %q", ann.Category))
	}

	region, err := cropper.Crop(img, ann.Box)
	if err != nil {
		return fail(err)
	}

	imgB64, err := d.processor.PrepareImageForModel(region, d.opts.SendFormat, d.opts.SendMaxDim, d.opts.SendQuality)
	if err != nil {
		return fail(fmt.Errorf("failed to encode region: %w", err))
	}

	scores, err := d.client.Score(ctx, d.opts.Model, imgB64, template.All())
	if err != nil {
		return fail(fmt.Errorf("scoring failed: %w", err))
	}

	gap, bestMatch := confidenceGap(scores, template)
	result.Score = gap
	result.BestMatch = bestMatch
	result.Status = d.classifier.Classify(gap)
	result.Elapsed = time.Since(start)

	d.logger.Debug("region scored",
		zap.Int("region_id", ann.RegionID),
		zap.String("category", ann.Category),
		zap.Float64("score", gap),
		zap.String("status", string(result.Status)))
	return result
}

// confidenceGap reduces per-prompt similarities to one signed score: the
// mean over positive prompts minus the mean over negative prompts. It also
// returns the best-matching positive prompt for the report.
func confidenceGap(scores map[string]float64, template prompts.Template) (float64, string) {
	var posSum float64
	bestMatch := ""
	bestScore := 0.0
	for i, p := range template.Positive {
		s := scores[p]
		posSum += s
		if i == 0 || s > bestScore {
			bestMatch, bestScore = p, s
		}
	}

	var negSum float64
	for _, p := range template.Negative {
		negSum += scores[p]
	}

	avgPos := posSum / float64(len(template.Positive))
	avgNeg := 0.0
	if len(template.Negative) > 0 {
		avgNeg = negSum / float64(len(template.Negative))
	}
	return avgPos - avgNeg, bestMatch
}
