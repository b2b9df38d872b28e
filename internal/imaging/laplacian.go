package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// laplacianKernel is the 4-neighbour Laplacian used by the sharpness score.
var laplacianKernel = &convolution.Kernel{
	Matrix: []float64{
		0, 1, 0,
		1, -4, 1,
		0, 1, 0,
	},
	Width:  3,
	Height: 3,
}

// previewBias shifts responses so a flat area renders mid-grey; positive and
// negative edge responses render lighter and darker.
const previewBias = 128

// LaplacianPreview renders the Laplacian response of img as a grayscale PNG.
//
// It shows where the sharpness score comes from: crisp detail appears as
// bright and dark fringes, defocused areas stay flat grey. The image is
// downscaled to maxDim before filtering (0 keeps full size), so the preview
// of a large photo looks smoother than the full-resolution response.
func LaplacianPreview(img image.Image, maxDim int) (*EncodedImage, error) {
	gray := effect.Grayscale(fitWithin(img, maxDim))
	response := convolution.Convolve(gray, laplacianKernel, &convolution.Options{Bias: previewBias, KeepAlpha: true})
	return encodePNG(effect.Grayscale(response))
}
