package sharpness

import "image"

// MaxGridCells bounds the rows and columns of a focus grid.
const MaxGridCells = 16

// Tile is the score of one cell of a focus grid.
type Tile struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Score float64 `json:"score"`
}

// Bounds returns the tile rectangle in image coordinates.
func (t Tile) Bounds() image.Rectangle {
	return image.Rect(t.X1, t.Y1, t.X2, t.Y2)
}

// Grid holds per-tile scores for an image split into Rows x Cols cells.
type Grid struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Tiles []Tile `json:"tiles"` // row-major
}

// FocusGrid splits img into rows x cols tiles and scores each tile on its own.
//
// Each tile is scored over its own interior, so tile borders never see pixels
// from neighbouring tiles. rows and cols are clamped to 1..MaxGridCells and
// to the image size; the last row and column absorb any remainder.
func FocusGrid(img image.Image, rows, cols int) Grid {
	src := toNRGBA(img)
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rows = clampCells(rows, height)
	cols = clampCells(cols, width)

	grid := Grid{Rows: rows, Cols: cols, Tiles: make([]Tile, 0, rows*cols)}
	if width == 0 || height == 0 {
		return grid
	}

	tileW, tileH := width/cols, height/rows
	for r := 0; r < rows; r++ {
		y1 := bounds.Min.Y + r*tileH
		y2 := y1 + tileH
		if r == rows-1 {
			y2 = bounds.Max.Y
		}
		for c := 0; c < cols; c++ {
			x1 := bounds.Min.X + c*tileW
			x2 := x1 + tileW
			if c == cols-1 {
				x2 = bounds.Max.X
			}
			rect := image.Rect(x1, y1, x2, y2)
			grid.Tiles = append(grid.Tiles, Tile{
				Row: r, Col: c,
				X1: x1, Y1: y1, X2: x2, Y2: y2,
				Score: Score(src.SubImage(rect)),
			})
		}
	}
	return grid
}

// Sharpest returns the tile with the highest score. ok is false for an
// empty grid.
func (g Grid) Sharpest() (tile Tile, ok bool) {
	for i, t := range g.Tiles {
		if i == 0 || t.Score > tile.Score {
			tile = t
		}
	}
	return tile, len(g.Tiles) > 0
}

// InFocusFraction returns the fraction of tiles scoring at or above
// threshold. A threshold <= 0 selects DefaultBlurThreshold.
func (g Grid) InFocusFraction(threshold float64) float64 {
	if len(g.Tiles) == 0 {
		return 0
	}
	if threshold <= 0 {
		threshold = DefaultBlurThreshold
	}
	n := 0
	for _, t := range g.Tiles {
		if t.Score >= threshold {
			n++
		}
	}
	return float64(n) / float64(len(g.Tiles))
}

func clampCells(n, size int) int {
	if n < 1 {
		n = 1
	}
	if n > MaxGridCells {
		n = MaxGridCells
	}
	if size > 0 && n > size {
		n = size
	}
	return n
}
