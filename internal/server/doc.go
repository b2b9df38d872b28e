// Package server implements the MCP (Model Context Protocol) server for photo
// sharpness tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Photo Information:
//   - photo_load: Load a photo and get its metadata
//
// Scoring:
//   - photo_sharpness: Variance-of-Laplacian score and blur verdict
//   - photo_sharpness_batch: Score many photos in parallel
//   - photo_focus_grid: Per-tile scores
//
// Rendering:
//   - photo_focus_map: Tinted focus grid over the photo
//   - photo_laplacian_preview: Visualise the Laplacian response
//   - photo_crop: Extract a rectangle or named region
//
// Upload Checks:
//   - photo_screenshot_check: OCR-based screenshot detection
//   - photo_history: Ledger summary and recent assessments
//
// # Image Caching
//
// Photos are cached by path and reused across tool calls. Batch scoring
// bypasses the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Logs go to stderr through zap; stdout carries only protocol messages.
package server
