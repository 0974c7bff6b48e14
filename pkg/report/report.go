// Package report aggregates per-region scores into a toolbox summary.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"toolcheck/pkg/types"
)

// ErrNoRegions indicates an aggregation over zero regions. An empty run is
// an input error, not a report.
var ErrNoRegions = fmt.Errorf("no regions to aggregate")

// Buckets maps completeness percentages to a coarse overall status.
// Every percentage in [0,100] falls into exactly one bucket, and a higher
// percentage never yields a worse status.
type Buckets struct {
	Excellent float64 `json:"excellent" mapstructure:"excellent"`
	Good      float64 `json:"good" mapstructure:"good"`
	Fair      float64 `json:"fair" mapstructure:"fair"`
}

// DefaultBuckets returns the production cutoffs.
func DefaultBuckets() Buckets {
	return Buckets{Excellent: 90, Good: 75, Fair: 50}
}

// Validate checks that the cutoffs are ordered and within [0,100].
func (b Buckets) Validate() error {
	for name, v := range map[string]float64{"excellent": b.Excellent, "good": b.Good, "fair": b.Fair} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("bucket cutoff %s must be within [0,100]", name)
		}
	}
	if b.Fair > b.Good || b.Good > b.Excellent {
		return fmt.Errorf("bucket cutoffs must satisfy fair <= good <= excellent")
	}
	return nil
}

// StatusFor buckets a completeness percentage.
func (b Buckets) StatusFor(pct float64) string {
	switch {
	case pct >= b.Excellent:
		return "excellent"
	case pct >= b.Good:
		return "good"
	case pct >= b.Fair:
		return "fair"
	default:
		return "poor"
	}
}

// Aggregate combines region scores into a toolbox report.
//
// Pure function: the same region set always produces the same report.
// Completeness counts every region in the denominator, including regions
// that failed to score, so a run with errors never looks more complete
// than it is.
func Aggregate(regions []types.RegionScore, buckets Buckets) (types.ToolboxReport, error) {
	if len(regions) == 0 {
		return types.ToolboxReport{}, ErrNoRegions
	}
	if err := buckets.Validate(); err != nil {
		return types.ToolboxReport{}, err
	}

	rep := types.ToolboxReport{
		TotalCount: len(regions),
		Regions:    make([]types.RegionScore, len(regions)),
	}
	copy(rep.Regions, regions)
	sort.SliceStable(rep.Regions, func(i, j int) bool {
		return rep.Regions[i].RegionID < rep.Regions[j].RegionID
	})

	for _, r := range rep.Regions {
		switch r.Status {
		case types.StatusPresent:
			rep.PresentCount++
		case types.StatusMissing:
			rep.MissingCount++
		case types.StatusUncertain:
			rep.UncertainCount++
		default:
			rep.ErrorCount++
		}
	}

	rep.CompletenessPct = float64(rep.PresentCount) / float64(rep.TotalCount) * 100
	rep.OverallStatus = buckets.StatusFor(rep.CompletenessPct)
	rep.Alerts = buildAlerts(rep.Regions)
	rep.Recommendations = buildRecommendations(rep)

	return rep, nil
}

func buildAlerts(regions []types.RegionScore) []types.Alert {
	var alerts []types.Alert
	for _, r := range regions {
		switch r.Status {
		case types.StatusMissing:
			alerts = append(alerts, types.Alert{
				Type:     "missing_tool",
				RegionID: r.RegionID,
				Category: r.Category,
				Message:  fmt.Sprintf("missing tool: %s (region %d)", r.Category, r.RegionID),
				Severity: "medium",
			})
		case types.StatusError:
			alerts = append(alerts, types.Alert{
				Type:     "detection_error",
				RegionID: r.RegionID,
				Category: r.Category,
				Message:  fmt.Sprintf("detection error: %s (region %d): %s", r.Category, r.RegionID, r.Detail),
				Severity: "high",
			})
		}
	}
	return alerts
}

func buildRecommendations(rep types.ToolboxReport) []string {
	var recs []string

	if rep.MissingCount > 0 {
		var missing []string
		for _, r := range rep.Regions {
			if r.Status == types.StatusMissing {
				missing = append(missing, r.Category)
			}
		}
		recs = append(recs, "return missing tools to their slots: "+strings.Join(missing, ", "))
	}
	if rep.CompletenessPct < 75 {
		recs = append(recs, "check toolbox organization; several slots do not match their annotations")
	}
	if rep.UncertainCount > 2 {
		recs = append(recs, "many uncertain regions; improve lighting or re-annotate slot positions")
	}
	if rep.ErrorCount > 0 {
		recs = append(recs, "some regions failed to score; check image quality and scorer availability")
	}
	return recs
}
