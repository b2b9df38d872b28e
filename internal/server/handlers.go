package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/imaging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
	"github.com/ironsheep/photo-sharpness-mcp/internal/logging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/ocr"
	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

// defaultMaxDim bounds rendered previews so responses stay small.
const defaultMaxDim = 1024

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_sharpness").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	requestID := uuid.NewString()
	opLogger := logging.WithOperation(s.logger, "mcp."+params.Name, requestID)
	start := time.Now()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		opLogger.Warn("tool failed",
			zap.Error(logging.NewOperationError(params.Name, requestID, err)),
			zap.Duration("elapsed", time.Since(start)))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	resp, err := s.toolResultResponse(req.ID, result)
	if err != nil {
		opLogger.Error("failed to encode tool result",
			zap.Error(logging.NewOperationError(params.Name, requestID, err)))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	opLogger.Debug("tool succeeded", zap.Duration("elapsed", time.Since(start)))
	return resp
}

// toolResultResponse wraps result as pretty-printed JSON text content.
func (s *Server) toolResultResponse(id interface{}, result interface{}) (*MCPResponse, error) {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(b),
				},
			},
		},
	}, nil
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "photo_load":
		return s.handlePhotoLoad(args)

	// Scoring
	case "photo_sharpness":
		return s.handlePhotoSharpness(ctx, args)
	case "photo_sharpness_batch":
		return s.handlePhotoSharpnessBatch(ctx, args)
	case "photo_focus_grid":
		return s.handlePhotoFocusGrid(args)

	// Rendering
	case "photo_focus_map":
		return s.handlePhotoFocusMap(args)
	case "photo_laplacian_preview":
		return s.handlePhotoLaplacianPreview(args)
	case "photo_crop":
		return s.handlePhotoCrop(args)

	// Upload checks
	case "photo_screenshot_check":
		return s.handlePhotoScreenshotCheck(args)
	case "photo_history":
		return s.handlePhotoHistory(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func (s *Server) threshold(t float64) float64 {
	if t > 0 {
		return t
	}
	if s.opts.Threshold > 0 {
		return s.opts.Threshold
	}
	return sharpness.DefaultBlurThreshold
}

func (s *Server) gridSize(rows, cols int) (int, int) {
	if rows <= 0 {
		rows = s.opts.Grid
	}
	if cols <= 0 {
		cols = s.opts.Grid
	}
	return rows, cols
}

func requirePath(path string) error {
	if path == "" {
		return errors.New("path is required")
	}
	return nil
}

// record stores an assessment when the ledger is enabled. Failures are
// logged, never returned: the score is still valid.
func (s *Server) record(ctx context.Context, name string, a sharpness.Assessment) {
	if s.opts.Store == nil {
		return
	}
	if _, err := s.opts.Store.Add(ctx, ledger.NewRecord(ledger.SourceMCP, name, a)); err != nil {
		s.logger.Error("failed to record assessment", zap.String("path", name), zap.Error(err))
	}
}

// === Photo Information ===

type photoPathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePhotoLoad(args json.RawMessage) (interface{}, error) {
	var a photoPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Scoring ===

type photoSharpnessArgs struct {
	Path      string  `json:"path"`
	Threshold float64 `json:"threshold"`
	Region    string  `json:"region"`
}

// SharpnessResult is the photo_sharpness response.
type SharpnessResult struct {
	Path   string `json:"path"`
	Region string `json:"region"`
	sharpness.Assessment
}

func (s *Server) handlePhotoSharpness(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoSharpnessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.Region == "" {
		a.Region = "full"
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	region, err := imaging.RegionImage(img, a.Region)
	if err != nil {
		return nil, err
	}

	assessment := sharpness.Assess(region, s.threshold(a.Threshold))
	if a.Region == "full" {
		s.record(ctx, a.Path, assessment)
	}
	return &SharpnessResult{Path: a.Path, Region: a.Region, Assessment: assessment}, nil
}

type photoSharpnessBatchArgs struct {
	Paths     []string `json:"paths"`
	Threshold float64  `json:"threshold"`
}

// BatchResult is the photo_sharpness_batch response.
type BatchResult struct {
	Entries []sharpness.BatchEntry `json:"entries"`
	Summary sharpness.BatchSummary `json:"summary"`
}

func (s *Server) handlePhotoSharpnessBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoSharpnessBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must contain at least one photo")
	}

	// Batches bypass the cache so a large album does not stay resident.
	entries := sharpness.AssessBatch(ctx, a.Paths, imaging.Open, s.threshold(a.Threshold), s.opts.Workers)
	for _, e := range entries {
		if e.Assessment != nil {
			s.record(ctx, e.Name, *e.Assessment)
		}
	}
	return &BatchResult{Entries: entries, Summary: sharpness.Summarize(entries)}, nil
}

type photoGridArgs struct {
	Path      string  `json:"path"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Threshold float64 `json:"threshold"`
	MaxDim    int     `json:"max_dim"`
}

// FocusGridResult is the photo_focus_grid response.
type FocusGridResult struct {
	sharpness.Grid
	Threshold       float64         `json:"threshold"`
	InFocusFraction float64         `json:"in_focus_fraction"`
	Sharpest        *sharpness.Tile `json:"sharpest,omitempty"`
}

func (s *Server) handlePhotoFocusGrid(args json.RawMessage) (interface{}, error) {
	var a photoGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rows, cols := s.gridSize(a.Rows, a.Cols)
	threshold := s.threshold(a.Threshold)
	grid := sharpness.FocusGrid(img, rows, cols)

	result := &FocusGridResult{
		Grid:            grid,
		Threshold:       threshold,
		InFocusFraction: grid.InFocusFraction(threshold),
	}
	if tile, ok := grid.Sharpest(); ok {
		result.Sharpest = &tile
	}
	return result, nil
}

// === Rendering ===

func (s *Server) handlePhotoFocusMap(args json.RawMessage) (interface{}, error) {
	var a photoGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.MaxDim == 0 {
		a.MaxDim = defaultMaxDim
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rows, cols := s.gridSize(a.Rows, a.Cols)
	grid := sharpness.FocusGrid(img, rows, cols)
	return imaging.RenderFocusMap(img, grid, s.threshold(a.Threshold), a.MaxDim)
}

type photoPreviewArgs struct {
	Path   string `json:"path"`
	MaxDim int    `json:"max_dim"`
}

func (s *Server) handlePhotoLaplacianPreview(args json.RawMessage) (interface{}, error) {
	var a photoPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.MaxDim == 0 {
		a.MaxDim = defaultMaxDim
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.LaplacianPreview(img, a.MaxDim)
}

type photoCropArgs struct {
	Path   string  `json:"path"`
	Region string  `json:"region"`
	X1     int     `json:"x1"`
	Y1     int     `json:"y1"`
	X2     int     `json:"x2"`
	Y2     int     `json:"y2"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handlePhotoCrop(args json.RawMessage) (interface{}, error) {
	var a photoCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	if a.Region != "" {
		b := img.Bounds()
		r, err := imaging.NamedRegion(b.Dx(), b.Dy(), a.Region)
		if err != nil {
			return nil, err
		}
		a.X1, a.Y1, a.X2, a.Y2 = r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === Upload Checks ===

type photoScreenshotArgs struct {
	Path          string  `json:"path"`
	Language      string  `json:"language"`
	MinWords      int     `json:"min_words"`
	MinCoverage   float64 `json:"min_coverage"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) handlePhotoScreenshotCheck(args json.RawMessage) (interface{}, error) {
	var a photoScreenshotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.opts.OCRLanguage
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return ocr.CheckScreenshot(img, a.Language, ocr.ScreenshotOptions{
		MinWords:      a.MinWords,
		MinCoverage:   a.MinCoverage,
		MinConfidence: a.MinConfidence,
	})
}

type photoHistoryArgs struct {
	Limit int `json:"limit"`
}

// HistoryResult is the photo_history response.
type HistoryResult struct {
	Summary ledger.Summary  `json:"summary"`
	Recent  []ledger.Record `json:"recent"`
}

func (s *Server) handlePhotoHistory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoHistoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	summary, err := s.opts.Store.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.opts.Store.Recent(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Summary: summary, Recent: recent}, nil
}
