// Package cropper extracts annotated tool-slot regions from toolbox images.
package cropper

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"toolcheck/pkg/types"
)

// ErrEmptyRegion indicates a box collapsed to zero area once clamped to the
// image bounds. The affected region is reported as status "error"; the run
// continues with the remaining regions.
var ErrEmptyRegion = fmt.Errorf("empty region after clamping")

// Crop cuts the region described by box out of img.
//
// Boxes that merely touch or overhang the image edge are clamped, never
// rejected. The returned image owns its pixels and does not alias img.
func Crop(img image.Image, box types.BoundingBox) (image.Image, error) {
	rect := Clamp(box, img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("%w: box %dx%d at (%d, %d)", ErrEmptyRegion,
			box.Width, box.Height, box.X, box.Y)
	}
	return imaging.Crop(img, rect), nil
}

// Clamp intersects a pixel-space box with the image bounds.
func Clamp(box types.BoundingBox, bounds image.Rectangle) image.Rectangle {
	rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height)
	return rect.Intersect(bounds)
}
