package viz

import (
	"strings"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const blank = rune(0x2800)

var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// noOwner marks a cell nothing was drawn into.
const noOwner = -1

// Canvas is a braille raster addressed in dots. Each cell also remembers the
// owner of the last dot drawn into it, which is how bodies get their colors.
type Canvas struct {
	cols, rows int
	cells      []rune
	owners     []int
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the size in character cells and clears the canvas.
func (c *Canvas) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	c.cols, c.rows = cols, rows
	c.cells = make([]rune, cols*rows)
	c.owners = make([]int, cols*rows)
	c.Clear()
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.cols * 2, c.rows * 4 }

func (c *Canvas) Cells() (cols, rows int) { return c.cols, c.rows }

func (c *Canvas) cell(x, y int) (int, bool) {
	if x < 0 || y < 0 {
		return 0, false
	}
	col, row := x/2, y/4
	if col >= c.cols || row >= c.rows {
		return 0, false
	}
	return row*c.cols + col, true
}

// Set lights the dot at (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y, owner int) {
	i, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.cells[i] |= dotBits[y%4][x%2]
	c.owners[i] = owner
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	i, ok := c.cell(x, y)
	if !ok {
		return false
	}
	return c.cells[i]&dotBits[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = blank
		c.owners[i] = noOwner
	}
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1, owner int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, owner)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Disc fills every dot within r of (cx, cy).
func (c *Canvas) Disc(cx, cy, r, owner int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.Set(cx+dx, cy+dy, owner)
			}
		}
	}
}

// Render returns the canvas as text. paint, when non-nil, wraps every run of
// cells that share an owner.
func (c *Canvas) Render(paint func(owner int, s string) string) string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		line := c.cells[row*c.cols : (row+1)*c.cols]
		owners := c.owners[row*c.cols : (row+1)*c.cols]
		start := 0
		for col := 1; col <= c.cols; col++ {
			if col < c.cols && owners[col] == owners[start] {
				continue
			}
			run := string(line[start:col])
			if paint != nil && owners[start] != noOwner {
				run = paint(owners[start], run)
			}
			b.WriteString(run)
			start = col
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Canvas) String() string { return c.Render(nil) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
