package sharpness

import (
	"image"

	"github.com/disintegration/imaging"
)

// ITU-R BT.601 luma weights.
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

// minDimension is the smallest width or height that still has an interior
// pixel for the 3x3 Laplacian.
const minDimension = 3

// Score returns the variance-of-Laplacian sharpness of img.
//
// Higher values mean sharper images. The value has no unit and is only
// meaningful relative to a calibrated threshold such as DefaultBlurThreshold.
// Images smaller than 3x3 score 0.
func Score(img image.Image) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < minDimension || height < minDimension {
		return 0
	}
	return Variance(Laplacian(Grayscale(img), width, height))
}

// Grayscale converts img to a row-major luminance buffer of length
// width*height. Channels are read as non-premultiplied 8-bit values so a
// pixel of (255,255,255) maps to a luminance of 255.
func Grayscale(img image.Image) []float64 {
	src := toNRGBA(img)
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([]float64, width*height)
	for y := 0; y < height; y++ {
		off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		row := src.Pix[off : off+width*4]
		base := y * width
		for x := 0; x < width; x++ {
			p := x * 4
			gray[base+x] = weightR*float64(row[p]) + weightG*float64(row[p+1]) + weightB*float64(row[p+2])
		}
	}
	return gray
}

// Laplacian applies the 4-neighbour discrete Laplacian to the interior of a
// row-major luminance buffer. The result holds (width-2)*(height-2) responses
// in row-major order; border pixels are excluded. It returns nil when there
// is no interior or the buffer does not match the dimensions.
func Laplacian(gray []float64, width, height int) []float64 {
	if width < minDimension || height < minDimension || len(gray) < width*height {
		return nil
	}

	out := make([]float64, 0, (width-2)*(height-2))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			// Pairwise sums keep a flat neighbourhood at exactly 4*center.
			out = append(out, (gray[i-1]+gray[i+1])+(gray[i-width]+gray[i+width])-4*gray[i])
		}
	}
	return out
}

// Variance returns the population variance (divide by N) of values,
// or 0 for an empty slice.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}

// toNRGBA returns img as *image.NRGBA, converting only when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return imaging.Clone(img)
}
