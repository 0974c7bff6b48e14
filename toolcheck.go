// Package toolcheck detects which tools are present or missing in a
// toolbox photo.
//
// The pipeline combines prior slot annotations with a zero-shot
// vision-language model: each annotated region is cropped from the image,
// scored against positive and negative text prompts for its tool category,
// classified as present, missing, uncertain or error, and finally
// aggregated into a toolbox completeness report.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"toolcheck"
//		"toolcheck/pkg/classify"
//		"toolcheck/pkg/clipserver"
//		"toolcheck/pkg/detection"
//		"toolcheck/pkg/report"
//	)
//
//	func main() {
//		scorer, err := clipserver.NewClient("http://localhost:8090")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		checker, err := toolcheck.New(scorer, classify.DefaultConfig(),
//			report.DefaultBuckets(), detection.DefaultOptions(), nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		rep, err := checker.CheckFile(context.Background(), "toolbox.jpg", "instances_default.json")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("%s: %.1f%% complete (%d/%d present)\n",
//			rep.OverallStatus, rep.CompletenessPct, rep.PresentCount, rep.TotalCount)
//	}
//
// The package consists of five components:
//
//  1. Annotations (pkg/annotations): loads COCO-style slot annotations
//  2. Cropper (pkg/cropper): cuts annotated regions out of the image
//  3. Score clients (pkg/clipserver, pkg/ollama): the model boundary
//  4. Classifier (pkg/classify): thresholds scores into presence states
//  5. Report (pkg/report): aggregates regions into a completeness summary
//
// Scoring backends are swappable behind the client.ScoreClient interface;
// tests use a deterministic stub. Per-region failures degrade that region
// to "error" status without aborting the run; malformed annotations or an
// invalid threshold configuration abort before anything is scored.
package toolcheck

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"toolcheck/pkg/annotations"
	"toolcheck/pkg/classify"
	"toolcheck/pkg/client"
	"toolcheck/pkg/detection"
	"toolcheck/pkg/processing"
	"toolcheck/pkg/report"
	"toolcheck/pkg/types"
)

// Version of the toolcheck library.
const Version = "1.0.0"

// ToolCheck runs the full detection pipeline against toolbox photos.
//
// Construct one per scoring model instance and pass it into each run; the
// checker itself keeps no state between runs.
type ToolCheck struct {
	detector  *detection.Detector
	processor *processing.Processor
	buckets   report.Buckets
}

// New creates a checker. The score client is owned by the caller; logger
// may be nil.
func New(sc client.ScoreClient, classifyCfg classify.Config, buckets report.Buckets, opts detection.Options, logger *zap.Logger) (*ToolCheck, error) {
	if sc == nil {
		return nil, fmt.Errorf("score client is required")
	}
	if err := buckets.Validate(); err != nil {
		return nil, err
	}
	classifier, err := classify.New(classifyCfg)
	if err != nil {
		return nil, err
	}
	return &ToolCheck{
		detector:  detection.NewDetector(sc, classifier, opts, logger),
		processor: processing.NewProcessor(),
		buckets:   buckets,
	}, nil
}

// CheckImage scores every annotated region of img and aggregates the
// results into a report.
func (tc *ToolCheck) CheckImage(ctx context.Context, img image.Image, anns []types.Annotation) (types.ToolboxReport, error) {
	regions, err := tc.detector.Run(ctx, img, anns)
	if err != nil {
		return types.ToolboxReport{}, err
	}
	return report.Aggregate(regions, tc.buckets)
}

// CheckFile loads the toolbox image and annotation file, then runs a check.
// The image path may also be an http(s) URL.
func (tc *ToolCheck) CheckFile(ctx context.Context, imagePath, annotationPath string) (types.ToolboxReport, error) {
	anns, err := annotations.Load(annotationPath)
	if err != nil {
		return types.ToolboxReport{}, err
	}

	img, err := tc.processor.LoadImageSmart(imagePath)
	if err != nil {
		return types.ToolboxReport{}, fmt.Errorf("failed to load image: %w", err)
	}

	return tc.CheckImage(ctx, img, anns)
}

// RenderOverlay draws the per-region statuses onto a copy of the image.
func (tc *ToolCheck) RenderOverlay(img image.Image, rep types.ToolboxReport) image.Image {
	return tc.processor.CreateReportOverlay(img, rep.Regions)
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
