package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

// Focus map tint endpoints: tiles at score 0 are tinted blurryTint, tiles at
// twice the threshold or more are tinted sharpTint.
var (
	blurryTint = mustHex("#d7263d")
	sharpTint  = mustHex("#1b998b")
)

// tintAlpha is the opacity of the tile tint over the photo (about 35%).
const tintAlpha = 90

// FocusMapResult is a rendered focus map plus the grid it was drawn from.
type FocusMapResult struct {
	EncodedImage
	Rows            int     `json:"rows"`
	Cols            int     `json:"cols"`
	Threshold       float64 `json:"threshold"`
	InFocusFraction float64 `json:"in_focus_fraction"`
}

// RenderFocusMap tints each tile of grid over img on a red-to-green ramp and
// labels it with its score. The output is downscaled so neither edge exceeds
// maxDim (0 keeps full size). grid must have been computed from img.
func RenderFocusMap(img image.Image, grid sharpness.Grid, threshold float64, maxDim int) (*FocusMapResult, error) {
	if threshold <= 0 {
		threshold = sharpness.DefaultBlurThreshold
	}

	src := img.Bounds()
	out := fitWithin(img, maxDim)
	dst := out.Bounds()
	sx := float64(dst.Dx()) / math.Max(1, float64(src.Dx()))
	sy := float64(dst.Dy()) / math.Max(1, float64(src.Dy()))

	for _, tile := range grid.Tiles {
		r := image.Rect(
			int(float64(tile.X1-src.Min.X)*sx), int(float64(tile.Y1-src.Min.Y)*sy),
			int(float64(tile.X2-src.Min.X)*sx), int(float64(tile.Y2-src.Min.Y)*sy),
		).Add(dst.Min)

		tint := image.NewUniform(TileColor(tile.Score, threshold))
		draw.Draw(out, r, tint, image.Point{}, draw.Over)
		drawScoreLabel(out, r, tile.Score)
	}

	enc, err := encodePNG(out)
	if err != nil {
		return nil, err
	}
	return &FocusMapResult{
		EncodedImage:    *enc,
		Rows:            grid.Rows,
		Cols:            grid.Cols,
		Threshold:       threshold,
		InFocusFraction: grid.InFocusFraction(threshold),
	}, nil
}

// TileColor returns the semi-transparent tint for a tile score. The ramp is
// blended in HCL space so the midpoint stays saturated instead of turning
// muddy brown.
func TileColor(score, threshold float64) color.NRGBA {
	t := 0.0
	if threshold > 0 {
		t = math.Min(math.Max(score/(2*threshold), 0), 1)
	}
	r, g, b := blurryTint.BlendHcl(sharpTint, t).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: tintAlpha}
}

// drawScoreLabel writes the rounded score in the top-left corner of r on a
// dark background. Labels that do not fit inside r are skipped.
func drawScoreLabel(img *image.NRGBA, r image.Rectangle, score float64) {
	text := strconv.FormatFloat(score, 'f', 0, 64)
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	const pad = 2
	box := image.Rect(r.Min.X, r.Min.Y, r.Min.X+textWidth+2*pad, r.Min.Y+face.Height+2*pad)
	if !box.In(r) {
		return
	}

	draw.Draw(img, box, image.NewUniform(color.NRGBA{0, 0, 0, 180}), image.Point{}, draw.Over)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(box.Min.X+pad, box.Min.Y+pad+face.Ascent),
	}
	d.DrawString(text)
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
