package cropper

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"toolcheck/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 0, 255})
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createTestImage(400, 300)
	box := types.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}

	region, err := Crop(img, box)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	bounds := region.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("Expected 100x50 region, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCropClampsToEdge(t *testing.T) {
	img := createTestImage(400, 300)

	// Box overhangs the right and bottom edge; clamped, not rejected.
	box := types.BoundingBox{X: 350, Y: 280, Width: 100, Height: 100}
	region, err := Crop(img, box)
	if err != nil {
		t.Fatalf("Crop failed for edge-overhanging box: %v", err)
	}

	bounds := region.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 20 {
		t.Errorf("Expected clamped 50x20 region, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCropTouchingEdge(t *testing.T) {
	img := createTestImage(400, 300)

	// Box ends exactly at the image edge.
	box := types.BoundingBox{X: 300, Y: 200, Width: 100, Height: 100}
	region, err := Crop(img, box)
	if err != nil {
		t.Fatalf("Crop failed for edge-touching box: %v", err)
	}

	bounds := region.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("Expected 100x100 region, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCropEmptyRegion(t *testing.T) {
	img := createTestImage(400, 300)

	tests := []struct {
		name string
		box  types.BoundingBox
	}{
		{"zero size", types.BoundingBox{X: 10, Y: 10, Width: 0, Height: 0}},
		{"outside image", types.BoundingBox{X: 500, Y: 500, Width: 50, Height: 50}},
		{"zero width", types.BoundingBox{X: 10, Y: 10, Width: 0, Height: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(img, tt.box)
			if err == nil {
				t.Fatal("Expected error for empty region")
			}
			if !errors.Is(err, ErrEmptyRegion) {
				t.Errorf("Expected ErrEmptyRegion, got %v", err)
			}
		})
	}
}

func TestCropDoesNotAliasSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	src.Set(10, 10, color.RGBA{255, 0, 0, 255})

	region, err := Crop(src, types.BoundingBox{X: 0, Y: 0, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	src.Set(10, 10, color.RGBA{0, 255, 0, 255})

	r, g, _, _ := region.At(10, 10).RGBA()
	if r == 0 || g != 0 {
		t.Error("Cropped region pixels changed when the source image was modified")
	}
}

func TestClamp(t *testing.T) {
	bounds := image.Rect(0, 0, 400, 300)

	rect := Clamp(types.BoundingBox{X: -10, Y: -10, Width: 50, Height: 50}, bounds)
	if rect != image.Rect(0, 0, 40, 40) {
		t.Errorf("Expected (0,0)-(40,40), got %v", rect)
	}

	rect = Clamp(types.BoundingBox{X: 390, Y: 290, Width: 50, Height: 50}, bounds)
	if rect != image.Rect(390, 290, 400, 300) {
		t.Errorf("Expected (390,290)-(400,300), got %v", rect)
	}
}
