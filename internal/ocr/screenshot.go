package ocr

import (
	"fmt"
	"image"
	"math"
)

// ScreenshotOptions tunes the screenshot heuristic. Zero fields take the
// defaults from DefaultScreenshotOptions.
type ScreenshotOptions struct {
	// MinWords is the number of confident words needed to flag a screenshot.
	MinWords int `json:"min_words"`

	// MinCoverage is the fraction of the image area (0-1) that confident word
	// boxes must cover.
	MinCoverage float64 `json:"min_coverage"`

	// MinConfidence drops words Tesseract is unsure about (0-1). Noise in
	// photos of fabric patterns produces many low-confidence "words".
	MinConfidence float64 `json:"min_confidence"`
}

// DefaultScreenshotOptions returns the thresholds used when none are given.
func DefaultScreenshotOptions() ScreenshotOptions {
	return ScreenshotOptions{
		MinWords:      25,
		MinCoverage:   0.08,
		MinConfidence: 0.5,
	}
}

func (o ScreenshotOptions) withDefaults() ScreenshotOptions {
	d := DefaultScreenshotOptions()
	if o.MinWords <= 0 {
		o.MinWords = d.MinWords
	}
	if o.MinCoverage <= 0 {
		o.MinCoverage = d.MinCoverage
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = d.MinConfidence
	}
	return o
}

// ScreenshotCheck is the outcome of the screenshot heuristic.
type ScreenshotCheck struct {
	LikelyScreenshot bool    `json:"likely_screenshot"`
	WordCount        int     `json:"word_count"`
	TextCoverage     float64 `json:"text_coverage"`
	MeanConfidence   float64 `json:"mean_confidence"`
	Reason           string  `json:"reason"`
	// Sample holds the first few confident words, for display.
	Sample []string `json:"sample,omitempty"`
}

const sampleWords = 12

// CheckScreenshot runs OCR on img and applies the screenshot heuristic.
func CheckScreenshot(img image.Image, language string, opts ScreenshotOptions) (*ScreenshotCheck, error) {
	result, err := ExtractTextFromImage(img, language)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	check := Classify(result.Regions, b.Dx()*b.Dy(), opts)
	return &check, nil
}

// Classify applies the screenshot heuristic to OCR word regions found in an
// image of imageArea pixels.
func Classify(words []TextRegion, imageArea int, opts ScreenshotOptions) ScreenshotCheck {
	opts = opts.withDefaults()

	var (
		count   int
		boxArea int
		confSum float64
		sample  []string
	)
	for _, w := range words {
		if w.Confidence < opts.MinConfidence {
			continue
		}
		count++
		boxArea += w.Bounds.Area()
		confSum += w.Confidence
		if len(sample) < sampleWords {
			sample = append(sample, w.Text)
		}
	}

	check := ScreenshotCheck{WordCount: count, Sample: sample}
	if imageArea > 0 {
		check.TextCoverage = math.Min(float64(boxArea)/float64(imageArea), 1)
	}
	if count > 0 {
		check.MeanConfidence = confSum / float64(count)
	}

	switch {
	case count < opts.MinWords:
		check.Reason = fmt.Sprintf("%d confident words, below %d", count, opts.MinWords)
	case check.TextCoverage < opts.MinCoverage:
		check.Reason = fmt.Sprintf("text covers %.1f%% of the frame, below %.1f%%",
			check.TextCoverage*100, opts.MinCoverage*100)
	default:
		check.LikelyScreenshot = true
		check.Reason = fmt.Sprintf("%d confident words covering %.1f%% of the frame",
			count, check.TextCoverage*100)
	}
	return check
}
