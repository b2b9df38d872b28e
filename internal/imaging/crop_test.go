package imaging

import (
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"
)

func decodeResult(t *testing.T, enc *EncodedImage) image.Image {
	t.Helper()
	if enc.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", enc.MimeType)
	}
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != enc.Width || img.Bounds().Dy() != enc.Height {
		t.Errorf("decoded %v, result says %dx%d", img.Bounds(), enc.Width, enc.Height)
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, 10, 20, 60, 50, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 50 || result.Height != 30 {
		t.Errorf("dimensions: got %dx%d, want 50x30", result.Width, result.Height)
	}
	decodeResult(t, result)
}

func TestCrop_WithScale(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name  string
		scale float64
		want  int
	}{
		{"double", 2.0, 80},
		{"half", 0.5, 20},
		{"zero means unscaled", 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Crop(img, 0, 0, 40, 40, tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if result.Width != tt.want || result.Height != tt.want {
				t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, tt.want, tt.want)
			}
		})
	}
}

func TestCrop_Invalid(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"negative x1", -1, 0, 50, 50},
		{"x2 beyond width", 0, 0, 101, 50},
		{"y2 beyond height", 0, 0, 50, 101},
		{"x1 equals x2", 50, 0, 50, 50},
		{"y1 greater than y2", 0, 60, 50, 50},
		{"x1 greater than x2", 60, 0, 50, 50},
		{"both corners swapped", 50, 50, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.x1, tt.y1, tt.x2, tt.y2, 1.0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCropImage_OffsetBounds(t *testing.T) {
	// Sub-images keep their parent's coordinates; crops are relative.
	parent := createPatternImage(100, 100)
	sub := parent.SubImage(image.Rect(50, 50, 100, 100))

	cropped, err := CropImage(sub, image.Rect(0, 0, 10, 10))
	if err != nil {
		t.Fatalf("CropImage failed: %v", err)
	}
	r, g, b, _ := cropped.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("expected white bottom-right quadrant, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestNamedRegion(t *testing.T) {
	tests := []struct {
		region string
		want   image.Rectangle
	}{
		{"", image.Rect(0, 0, 200, 100)},
		{"full", image.Rect(0, 0, 200, 100)},
		{"top-left", image.Rect(0, 0, 100, 50)},
		{"top-right", image.Rect(100, 0, 200, 50)},
		{"bottom-left", image.Rect(0, 50, 100, 100)},
		{"bottom-right", image.Rect(100, 50, 200, 100)},
		{"top-half", image.Rect(0, 0, 200, 50)},
		{"bottom-half", image.Rect(0, 50, 200, 100)},
		{"left-half", image.Rect(0, 0, 100, 100)},
		{"right-half", image.Rect(100, 0, 200, 100)},
		{"center", image.Rect(50, 25, 150, 75)},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, err := NamedRegion(200, 100, tt.region)
			if err != nil {
				t.Fatalf("NamedRegion failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NamedRegion(200, 100, "middle-ish"); err == nil {
		t.Error("unknown region should fail")
	}
}

func TestRegionImage(t *testing.T) {
	img := createPatternImage(80, 60)

	full, err := RegionImage(img, "full")
	if err != nil || full != image.Image(img) {
		t.Errorf("full region should return the image itself (err=%v)", err)
	}

	tl, err := RegionImage(img, "top-left")
	if err != nil {
		t.Fatalf("RegionImage failed: %v", err)
	}
	if tl.Bounds().Dx() != 40 || tl.Bounds().Dy() != 30 {
		t.Errorf("top-left bounds %v, want 40x30", tl.Bounds())
	}
	r, g, b, _ := tl.At(tl.Bounds().Min.X+5, tl.Bounds().Min.Y+5).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("top-left should be red, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}

	if _, err := RegionImage(img, "nowhere"); err == nil {
		t.Error("unknown region should fail")
	}
}
