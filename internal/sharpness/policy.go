package sharpness

import "image"

// DefaultBlurThreshold is the score below which a photo is flagged as
// possibly blurry. Calibrated against phone-camera uploads at full
// resolution; downscaled images score higher.
const DefaultBlurThreshold = 100.0

// Verdicts reported by Assessment.Verdict.
const (
	VerdictSharp    = "sharp"
	VerdictBlurry   = "possibly blurry"
	VerdictTooSmall = "too small to assess"
)

// Assessment is the result of applying a blur threshold to a score.
type Assessment struct {
	// Score is the raw variance-of-Laplacian value.
	Score float64 `json:"score"`

	// Threshold is the threshold the score was compared against.
	Threshold float64 `json:"threshold"`

	// Blurry is true when Score < Threshold. Degenerate images are blurry.
	Blurry bool `json:"blurry"`

	// Degenerate is true when the image had no interior pixels to convolve.
	Degenerate bool `json:"degenerate"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Verdict string `json:"verdict"`
}

// Assess scores img and compares the score with threshold.
// A threshold <= 0 selects DefaultBlurThreshold.
func Assess(img image.Image, threshold float64) Assessment {
	bounds := img.Bounds()
	return Classify(Score(img), threshold, bounds.Dx(), bounds.Dy())
}

// Classify applies the blur policy to a score computed elsewhere, for
// example one read back from a cache.
func Classify(score, threshold float64, width, height int) Assessment {
	if threshold <= 0 {
		threshold = DefaultBlurThreshold
	}

	a := Assessment{
		Score:      score,
		Threshold:  threshold,
		Blurry:     score < threshold,
		Degenerate: width < minDimension || height < minDimension,
		Width:      width,
		Height:     height,
	}

	switch {
	case a.Degenerate:
		a.Verdict = VerdictTooSmall
	case a.Blurry:
		a.Verdict = VerdictBlurry
	default:
		a.Verdict = VerdictSharp
	}
	return a
}
