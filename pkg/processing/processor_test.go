package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"toolcheck/pkg/types"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 50, 255})
		}
	}
	return img
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(800, 600)

	b64, err := p.PrepareImageForModel(img, "jpg", 400, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("Result is not valid base64: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Result does not decode as an image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg, got %s", format)
	}

	// Long side capped at 400, aspect preserved.
	bounds := decoded.Bounds()
	if bounds.Dx() != 400 || bounds.Dy() != 300 {
		t.Errorf("Expected 400x300, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestPrepareImageForModelNoResize(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(100, 80)

	b64, err := p.PrepareImageForModel(img, "png", 0, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, _ := base64.StdEncoding.DecodeString(b64)
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Result does not decode: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected png, got %s", format)
	}
	if decoded.Bounds().Dx() != 100 || decoded.Bounds().Dy() != 80 {
		t.Errorf("Image was resized unexpectedly: %v", decoded.Bounds())
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(64, 48)
	dir := t.TempDir()

	for _, format := range []string{"jpg", "png", "webp"} {
		path := filepath.Join(dir, "out."+format)
		if err := p.SaveImage(img, path, format, 90, false); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}

		loaded, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", format, err)
		}
		if loaded.Bounds().Dx() != 64 || loaded.Bounds().Dy() != 48 {
			t.Errorf("Loaded %s image has wrong size: %v", format, loaded.Bounds())
		}
	}
}

func TestLoadImageFromReader(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(32, 32)

	b64, err := p.PrepareImageForModel(img, "png", 0, 85)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := base64.StdEncoding.DecodeString(b64)

	loaded, err := p.LoadImageFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadImageFromReader failed: %v", err)
	}
	if loaded.Bounds().Dx() != 32 {
		t.Errorf("Unexpected size: %v", loaded.Bounds())
	}
}

func TestCreateReportOverlay(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(100, 100)

	regions := []types.RegionScore{
		{RegionID: 1, Status: types.StatusPresent, Box: types.BoundingBox{X: 10, Y: 10, Width: 30, Height: 30}},
		{RegionID: 2, Status: types.StatusMissing, Box: types.BoundingBox{X: 50, Y: 50, Width: 30, Height: 30}},
		{RegionID: 3, Status: types.StatusError, Box: types.BoundingBox{X: 500, Y: 500, Width: 10, Height: 10}},
	}

	overlay := p.CreateReportOverlay(img, regions)
	if overlay.Bounds() != img.Bounds() {
		t.Errorf("Overlay bounds differ from source: %v vs %v", overlay.Bounds(), img.Bounds())
	}

	// Present border is green.
	r, g, b, _ := overlay.At(10, 10).RGBA()
	if r>>8 != 0 || g>>8 != 200 || b>>8 != 0 {
		t.Errorf("Expected green border at (10,10), got %d,%d,%d", r>>8, g>>8, b>>8)
	}

	// Missing border is red.
	r, g, b, _ = overlay.At(50, 50).RGBA()
	if r>>8 != 220 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("Expected red border at (50,50), got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}
