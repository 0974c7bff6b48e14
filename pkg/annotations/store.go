// Package annotations loads tool-slot regions from COCO-style annotation files.
package annotations

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"toolcheck/pkg/prompts"
	"toolcheck/pkg/types"
)

// ErrMalformed indicates the annotation file cannot be used for a detection
// run. It is fatal: nothing is scored when loading fails.
var ErrMalformed = fmt.Errorf("malformed annotations")

// cocoFile mirrors the subset of the COCO object-detection schema the
// pipeline needs. Extra fields in the file are ignored.
type cocoFile struct {
	Images      []cocoImage      `json:"images"`
	Categories  []cocoCategory   `json:"categories"`
	Annotations []cocoAnnotation `json:"annotations"`
}

type cocoImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type cocoCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type cocoAnnotation struct {
	ID         int       `json:"id"`
	ImageID    int       `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float64 `json:"bbox"`
}

// Load reads and validates an annotation file.
//
// Every returned annotation has a unique region ID, a category from the
// closed tool set, and a non-degenerate box that lies inside the referenced
// image when the file declares image dimensions.
func Load(path string) ([]types.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Parse(data)
}

// Parse validates annotation JSON already in memory.
func Parse(data []byte) ([]types.Annotation, error) {
	var file cocoFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	categories := make(map[int]string, len(file.Categories))
	for _, c := range file.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: category %d has no name", ErrMalformed, c.ID)
		}
		categories[c.ID] = c.Name
	}

	images := make(map[int]cocoImage, len(file.Images))
	for _, img := range file.Images {
		images[img.ID] = img
	}

	seen := make(map[int]bool, len(file.Annotations))
	out := make([]types.Annotation, 0, len(file.Annotations))
	for _, ann := range file.Annotations {
		if seen[ann.ID] {
			return nil, fmt.Errorf("%w: duplicate region id %d", ErrMalformed, ann.ID)
		}
		seen[ann.ID] = true

		category, ok := categories[ann.CategoryID]
		if !ok {
			return nil, fmt.Errorf("%w: region %d references unknown category %d", ErrMalformed, ann.ID, ann.CategoryID)
		}
		if !prompts.IsKnown(category) {
			return nil, fmt.Errorf("%w: region %d has category %q outside the tool set", ErrMalformed, ann.ID, category)
		}

		box, err := parseBBox(ann.BBox)
		if err != nil {
			return nil, fmt.Errorf("%w: region %d: %v", ErrMalformed, ann.ID, err)
		}

		img, hasImage := images[ann.ImageID]
		if hasImage && img.Width > 0 && img.Height > 0 {
			if box.X+box.Width > img.Width || box.Y+box.Height > img.Height {
				return nil, fmt.Errorf("%w: region %d box exceeds image bounds %dx%d",
					ErrMalformed, ann.ID, img.Width, img.Height)
			}
		}

		out = append(out, types.Annotation{
			RegionID: ann.ID,
			Category: category,
			Box:      box,
			ImageRef: img.FileName,
		})
	}

	return out, nil
}

// parseBBox converts a COCO [x, y, w, h] box to pixel coordinates.
func parseBBox(bbox []float64) (types.BoundingBox, error) {
	if len(bbox) != 4 {
		return types.BoundingBox{}, fmt.Errorf("bbox must have 4 values, got %d", len(bbox))
	}
	for _, v := range bbox {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.BoundingBox{}, fmt.Errorf("bbox contains non-finite value")
		}
	}
	x, y, w, h := bbox[0], bbox[1], bbox[2], bbox[3]
	if x < 0 || y < 0 {
		return types.BoundingBox{}, fmt.Errorf("bbox origin (%.1f, %.1f) is negative", x, y)
	}
	if w <= 0 || h <= 0 {
		return types.BoundingBox{}, fmt.Errorf("bbox size %.1fx%.1f is not positive", w, h)
	}
	return types.BoundingBox{
		X:      int(x + 0.5),
		Y:      int(y + 0.5),
		Width:  int(w + 0.5),
		Height: int(h + 0.5),
	}, nil
}
