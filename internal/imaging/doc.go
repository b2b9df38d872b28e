// Package imaging loads guest photos and renders the visual aids that go with
// a sharpness assessment.
//
// Loading goes through disintegration/imaging so that JPEGs shot in portrait
// orientation are rotated according to their EXIF tag before scoring, exactly
// as a browser displays them. Supported formats are JPEG, PNG, GIF, BMP, TIFF
// and WebP. HEIC files must be converted by the uploader first.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Rendered Output
//
// Rendering functions (RenderFocusMap, LaplacianPreview, Crop) return an
// EncodedImage: a base64 PNG plus its dimensions, ready to embed in an MCP
// or HTTP JSON response. Large photos are downscaled to a maximum edge before
// encoding; scores are always computed on the full-resolution image.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Rendering functions are
// stateless and can be called concurrently on different images.
package imaging
