package types

import "time"

// BoundingBox is an axis-aligned rectangle in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Empty reports whether the box covers no pixels.
func (b BoundingBox) Empty() bool {
	return b.Area() == 0
}

// Annotation names one tool slot on a toolbox image.
type Annotation struct {
	RegionID int         `json:"region_id"`
	Category string      `json:"category"`
	Box      BoundingBox `json:"box"`
	ImageRef string      `json:"image_ref"`
}

// Status is the per-region classification outcome. The four values are
// stable wire names and appear identically in every output format.
type Status string

const (
	StatusPresent   Status = "present"
	StatusMissing   Status = "missing"
	StatusUncertain Status = "uncertain"
	StatusError     Status = "error"
)

// RegionScore is the immutable result of scoring a single annotated region.
type RegionScore struct {
	RegionID  int           `json:"region_id"`
	Category  string        `json:"category"`
	Box       BoundingBox   `json:"box"`
	Score     float64       `json:"score"`
	Status    Status        `json:"status"`
	BestMatch string        `json:"best_match,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns,omitempty"`
}

// Alert flags a region that needs operator attention.
type Alert struct {
	Type     string `json:"type"`
	RegionID int    `json:"region_id"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ToolboxReport summarizes one detection run across all annotated regions.
type ToolboxReport struct {
	TotalCount      int           `json:"total_count"`
	PresentCount    int           `json:"present_count"`
	MissingCount    int           `json:"missing_count"`
	UncertainCount  int           `json:"uncertain_count"`
	ErrorCount      int           `json:"error_count"`
	CompletenessPct float64       `json:"completeness_pct"`
	OverallStatus   string        `json:"overall_status"`
	Regions         []RegionScore `json:"regions"`
	Alerts          []Alert       `json:"alerts,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}
