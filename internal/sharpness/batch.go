package sharpness

import (
	"context"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LoadFunc resolves a name (typically a file path) to a decoded image.
type LoadFunc func(name string) (image.Image, error)

// BatchEntry is the outcome for one image of a batch.
type BatchEntry struct {
	Name       string      `json:"name"`
	Assessment *Assessment `json:"assessment,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// AssessBatch loads and assesses every named image, at most workers at a time.
//
// Images are independent, so a failure to load one is recorded in its entry
// and the rest of the batch continues. Entries are returned in input order.
// Once ctx is done no further images are started and the remaining entries
// carry the context error. workers < 1 uses runtime.NumCPU().
func AssessBatch(ctx context.Context, names []string, load LoadFunc, threshold float64, workers int) []BatchEntry {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	entries := make([]BatchEntry, len(names))
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, name := range names {
		entries[i].Name = name
		if err := ctx.Err(); err != nil {
			entries[i].Error = err.Error()
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				entries[i].Error = err.Error()
				return nil
			}
			img, err := load(name)
			if err != nil {
				entries[i].Error = err.Error()
				return nil
			}
			a := Assess(img, threshold)
			entries[i].Assessment = &a
			return nil
		})
	}

	_ = g.Wait()
	return entries
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Total  int `json:"total"`
	Sharp  int `json:"sharp"`
	Blurry int `json:"blurry"`
	Failed int `json:"failed"`
}

// Summarize counts sharp, blurry and failed entries.
func Summarize(entries []BatchEntry) BatchSummary {
	s := BatchSummary{Total: len(entries)}
	for _, e := range entries {
		switch {
		case e.Assessment == nil:
			s.Failed++
		case e.Assessment.Blurry:
			s.Blurry++
		default:
			s.Sharp++
		}
	}
	return s
}
