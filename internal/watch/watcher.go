// Package watch scores photos as they land in an upload directory.
//
// Uploads arrive as a burst of create and write events. Each path is
// debounced by a settle delay and assessed once the file has been quiet
// for that long.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/imaging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
	"github.com/ironsheep/photo-sharpness-mcp/internal/logging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

// DefaultSettle is used when Options.Settle is not positive.
const DefaultSettle = 500 * time.Millisecond

// Result reports the assessment of one file.
type Result struct {
	Path       string
	Assessment *sharpness.Assessment
	Err        error
}

// Options configures a Watcher.
type Options struct {
	Dir       string
	Threshold float64
	Settle    time.Duration

	// Backfill assesses photos already in Dir before watching.
	Backfill bool

	// Store records every assessment when non-nil.
	Store *ledger.Store

	Logger *zap.Logger

	// OnResult is called from the watcher goroutine for every assessed or
	// failed file.
	OnResult func(Result)
}

// Watcher monitors one directory for new photos.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string

	// done is closed when Run returns so settled timers stop handing off.
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for opts.Dir. The directory must exist.
func New(opts Options) (*Watcher, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to watch directory: %s is not a directory", opts.Dir)
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(opts.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		opts:    opts,
		watcher: fw,
		logger:  opts.Logger.With(zap.String("dir", opts.Dir)),
		pending: make(map[string]*time.Timer),
		ready:   make(chan string, 64),
		done:    make(chan struct{}),
	}, nil
}

// Run processes events until ctx is cancelled, then releases the watcher.
// Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimers()
	defer w.stop()

	if w.opts.Backfill {
		if err := w.backfill(ctx); err != nil {
			return err
		}
	}
	w.logger.Info("watching for uploads", zap.Duration("settle", w.opts.Settle))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case path := <-w.ready:
			w.process(ctx, path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("filesystem watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !imaging.IsPhotoFile(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(event.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		case <-w.done:
		}
	})
}

func (w *Watcher) stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// backfill assesses photos already present, in name order.
func (w *Watcher) backfill(ctx context.Context) error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && imaging.IsPhotoFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	w.logger.Info("backfilling existing photos", zap.Int("count", len(names)))
	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}
		w.process(ctx, filepath.Join(w.opts.Dir, name))
	}
	return nil
}

func (w *Watcher) process(ctx context.Context, path string) {
	logger := logging.WithOperation(w.logger, "watch.assess", uuid.NewString()).With(zap.String("path", path))
	result := Result{Path: path}

	img, err := imaging.Open(path)
	if err != nil {
		// Files removed before they settled are not worth reporting.
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		logger.Warn("failed to load upload", zap.Error(err))
		result.Err = err
		w.report(result)
		return
	}

	a := sharpness.Assess(img, w.opts.Threshold)
	result.Assessment = &a

	fields := []zap.Field{
		zap.Float64("score", a.Score),
		zap.Float64("threshold", a.Threshold),
		zap.String("verdict", a.Verdict),
	}
	if a.Blurry {
		logger.Warn("upload may be blurry", fields...)
	} else {
		logger.Info("upload assessed", fields...)
	}

	if w.opts.Store != nil {
		if _, err := w.opts.Store.Add(ctx, ledger.NewRecord(ledger.SourceWatch, path, a)); err != nil {
			logger.Error("failed to record assessment", zap.Error(err))
		}
	}
	w.report(result)
}

func (w *Watcher) report(r Result) {
	if w.opts.OnResult != nil {
		w.opts.OnResult(r)
	}
}
