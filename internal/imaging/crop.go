package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// RegionNames lists the names accepted by NamedRegion.
var RegionNames = []string{
	"full", "center",
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half",
}

// Crop extracts a rectangular region and returns it as base64 PNG, scaled by
// scale (1.0 keeps the original size). Coordinates are relative to the
// image's top-left corner.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*EncodedImage, error) {
	// image.Rect would silently swap inverted corners.
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	cropped, err := CropImage(img, image.Rect(x1, y1, x2, y2))
	if err != nil {
		return nil, err
	}

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return encodePNG(cropped)
}

// CropImage returns the pixels of r (relative to the image's top-left corner)
// as a new image. The region must lie inside the image and be non-empty.
func CropImage(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > w || r.Max.Y > h {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, w, h)
	}
	if r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, r.Add(bounds.Min)), nil
}

// NamedRegion resolves a region name to a rectangle relative to the
// top-left corner of an image of the given size. "center" is the middle 50%
// of each dimension, where guests usually frame the couple.
func NamedRegion(width, height int, region string) (image.Rectangle, error) {
	midX := width / 2
	midY := height / 2

	var x1, y1, x2, y2 int
	switch region {
	case "", "full":
		x1, y1, x2, y2 = 0, 0, width, height
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, width, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, height
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, width, height
	case "top-half":
		x1, y1, x2, y2 = 0, 0, width, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, width, height
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, height
	case "right-half":
		x1, y1, x2, y2 = midX, 0, width, height
	case "center":
		qW := width / 4
		qH := height / 4
		x1, y1, x2, y2 = qW, qH, width-qW, height-qH
	default:
		return image.Rectangle{}, fmt.Errorf("unknown region: %s", region)
	}

	return image.Rect(x1, y1, x2, y2), nil
}

// RegionImage returns the named region of img as a new image, ready for
// scoring on its own.
func RegionImage(img image.Image, region string) (image.Image, error) {
	b := img.Bounds()
	if region == "" || region == "full" {
		return img, nil
	}
	r, err := NamedRegion(b.Dx(), b.Dy(), region)
	if err != nil {
		return nil, err
	}
	return CropImage(img, r)
}
