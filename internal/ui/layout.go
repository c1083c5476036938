package ui

import "cheekyos/internal/effects"

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < 80 || rows < 24 {
		return LayoutTooSmall
	}
	if cols >= 120 && rows >= 30 {
		return LayoutWide
	}
	return LayoutMedium
}

// glass maps the virtual CRT area onto a rectangle of terminal cells.
type glass struct {
	top, left  int
	cols, rows int
}

func (g glass) toArea(col, row int) (float64, float64) {
	if g.cols <= 0 || g.rows <= 0 {
		return 0, 0
	}
	x := (float64(col-g.left) + 0.5) * effects.PlayArea.W / float64(g.cols)
	y := (float64(row-g.top) + 0.5) * effects.PlayArea.H / float64(g.rows)
	return x, y
}

func (g glass) toCell(x, y float64) (col, row int) {
	col = g.left + int(x*float64(g.cols)/effects.PlayArea.W)
	row = g.top + int(y*float64(g.rows)/effects.PlayArea.H)
	return col, row
}

func (g glass) contains(col, row int) bool {
	return col >= g.left && col < g.left+g.cols && row >= g.top && row < g.top+g.rows
}

// scale converts a length on the glass to cells along each axis.
func (g glass) scale(w, h float64) (int, int) {
	return max(1, int(w*float64(g.cols)/effects.PlayArea.W)), max(1, int(h*float64(g.rows)/effects.PlayArea.H))
}
