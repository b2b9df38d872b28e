package server

import "github.com/ironsheep/photo-sharpness-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photo",
	}
}

func thresholdProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Blur threshold; scores below it are flagged. Default is the server threshold (100 unless configured)",
	}
}

func gridProperty(axis string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Number of grid " + axis + " (1-16). Default is the server grid size",
		"minimum":     1,
		"maximum":     16,
	}
}

func maxDimProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Longest edge of the rendered image in pixels (default 1024, negative keeps full size)",
		"default":     defaultMaxDim,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Photo Information
		{
			Name:        "photo_load",
			Description: "Load a photo and return its dimensions, format and file size. The decoded photo is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Scoring
		{
			Name:        "photo_sharpness",
			Description: "Score a photo's sharpness as the variance of its Laplacian and flag it as possibly blurry when the score is below the threshold. Higher scores mean more fine detail.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"threshold": thresholdProperty(),
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        imaging.RegionNames,
						"description": "Score only a named region of the photo. Default full",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_sharpness_batch",
			Description: "Score several photos in parallel. Photos that fail to load are reported individually and do not stop the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the photos",
					},
					"threshold": thresholdProperty(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "photo_focus_grid",
			Description: "Split a photo into a grid and score each tile on its own. Shows whether the subject is sharp even when the background is intentionally soft.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"rows":      gridProperty("rows"),
					"cols":      gridProperty("columns"),
					"threshold": thresholdProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Rendering
		{
			Name:        "photo_focus_map",
			Description: "Render the focus grid over the photo as base64 PNG: each tile is tinted from red (blurry) to green (sharp) and labelled with its score.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"rows":      gridProperty("rows"),
					"cols":      gridProperty("columns"),
					"threshold": thresholdProperty(),
					"max_dim":   maxDimProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_laplacian_preview",
			Description: "Render the Laplacian response of a photo as base64 PNG. Crisp edges show as bright and dark fringes; defocused areas stay flat grey.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"max_dim": maxDimProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_crop",
			Description: "Crop a rectangle or a named region of a photo and return it as base64 PNG, to inspect detail at full resolution.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        imaging.RegionNames,
						"description": "Named region; overrides x1/y1/x2/y2 when set",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Upload Checks
		{
			Name:        "photo_screenshot_check",
			Description: "Run OCR on a photo and report whether it looks like a screenshot of a phone or chat rather than a camera photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default is the server OCR language",
					},
					"min_words": map[string]interface{}{
						"type":        "integer",
						"description": "Confident words needed to flag a screenshot (default 25)",
					},
					"min_coverage": map[string]interface{}{
						"type":        "number",
						"description": "Fraction of the frame word boxes must cover (default 0.08)",
					},
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum OCR confidence (0-1) for a word to count (default 0.5)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_history",
			Description: "Summarize recorded sharpness assessments and list the most recent ones. Requires the assessment ledger to be enabled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Number of recent assessments to return (default 50)",
						"default":     50,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
