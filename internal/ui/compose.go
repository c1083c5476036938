package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

func blank(cols, rows int) string {
	line := strings.Repeat(" ", max(0, cols))
	lines := make([]string, max(0, rows))
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// padCells pads or cuts s to exactly width cells, keeping its styling.
func padCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, ansi.StringWidth(line))
	}
	ow = min(ow, cols)
	oh := min(len(overlayLines), rows)
	return composeOverlayAt(base, overlay, cols, rows, (rows-oh)/2, max(0, (cols-ow)/2))
}

// composeOverlayAt stamps overlay onto base with its top-left corner at
// (startRow, startCol). Both keep their styling; cells outside the overlay's
// bounding box show base.
func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		baseLines = append(baseLines, make([]string, rows-len(baseLines))...)
	}
	baseLines = baseLines[:rows]
	for i := range baseLines {
		baseLines[i] = padCells(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines, "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, ansi.StringWidth(line))
	}
	startRow = max(0, startRow)
	startCol = min(max(0, startCol), max(0, cols-1))
	ow = min(ow, cols-startCol)

	for i, line := range overlayLines {
		row := startRow + i
		if row >= rows {
			break
		}
		left := ansi.Truncate(baseLines[row], startCol, "")
		right := ansi.TruncateLeft(baseLines[row], startCol+ow, "")
		baseLines[row] = left + padCells(line, ow) + right
	}
	return strings.Join(baseLines, "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
