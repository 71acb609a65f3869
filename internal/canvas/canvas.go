// Package canvas provides terminal rendering surfaces: a cell canvas that
// composites translucent circles for the trail, and a wireframe projector
// for the cube.
package canvas

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
	"github.com/Mr-Dark-debug/motiontrail/internal/trail"
)

// Pixel size of one terminal cell. Terminal cells are about twice as tall
// as they are wide.
const (
	CellWidth  = 8
	CellHeight = 16
)

var (
	// ErrInvalidViewport is returned for negative canvas dimensions.
	ErrInvalidViewport = errors.New("canvas: invalid viewport")
	// ErrReleased is returned when a released canvas is used or released
	// again.
	ErrReleased = errors.New("canvas: already released")
)

// Canvas is a grid of colored cells addressed in pixel coordinates. It
// implements trail.Surface.
type Canvas struct {
	cols, rows int
	cells      []rgb.Color
	background rgb.Color
	fill       rgb.Color
	alpha      float64
	released   bool
}

// New allocates a cols x rows canvas cleared to background.
func New(cols, rows int, background rgb.Color) (*Canvas, error) {
	c := &Canvas{background: background, fill: rgb.White, alpha: 1}
	if err := c.Resize(cols, rows); err != nil {
		return nil, err
	}
	return c, nil
}

// Resize reallocates the grid. Contents are discarded.
func (c *Canvas) Resize(cols, rows int) error {
	if c.released {
		return ErrReleased
	}
	if cols < 0 || rows < 0 {
		return fmt.Errorf("%w: %dx%d cells", ErrInvalidViewport, cols, rows)
	}
	c.cols, c.rows = cols, rows
	c.cells = make([]rgb.Color, cols*rows)
	for i := range c.cells {
		c.cells[i] = c.background
	}
	return nil
}

// Size returns the grid size in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// Viewport returns the canvas size in pixels.
func (c *Canvas) Viewport() trail.Viewport {
	return trail.Viewport{
		Width:  float64(c.cols * CellWidth),
		Height: float64(c.rows * CellHeight),
	}
}

// At returns the color of the cell at col,row.
func (c *Canvas) At(col, row int) rgb.Color {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return c.background
	}
	return c.cells[row*c.cols+col]
}

// Clear resets every cell overlapping [0,width]x[0,height].
func (c *Canvas) Clear(width, height float64) {
	maxCol := minInt(c.cols, int(math.Ceil(width/CellWidth)))
	maxRow := minInt(c.rows, int(math.Ceil(height/CellHeight)))
	for row := 0; row < maxRow; row++ {
		for col := 0; col < maxCol; col++ {
			c.cells[row*c.cols+col] = c.background
		}
	}
}

func (c *Canvas) SetFillColor(col rgb.Color) { c.fill = col }

func (c *Canvas) SetAlpha(alpha float64) {
	c.alpha = math.Max(0, math.Min(alpha, 1))
}

// DrawFilledCircle composites the fill color over every cell the circle
// touches.
func (c *Canvas) DrawFilledCircle(x, y, radius float64) {
	if radius <= 0 || c.alpha == 0 {
		return
	}
	minCol := maxInt(0, int(math.Floor((x-radius)/CellWidth)))
	maxCol := minInt(c.cols-1, int(math.Floor((x+radius)/CellWidth)))
	minRow := maxInt(0, int(math.Floor((y-radius)/CellHeight)))
	maxRow := minInt(c.rows-1, int(math.Floor((y+radius)/CellHeight)))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			// Nearest point of the cell rectangle to the circle center.
			nx := math.Max(float64(col*CellWidth), math.Min(x, float64((col+1)*CellWidth)))
			ny := math.Max(float64(row*CellHeight), math.Min(y, float64((row+1)*CellHeight)))
			if math.Hypot(nx-x, ny-y) >= radius {
				continue
			}
			i := row*c.cols + col
			c.cells[i] = rgb.Over(c.cells[i], c.fill, c.alpha)
		}
	}
}

// Render draws the grid as background-colored blanks, one line per row.
// Runs of equal color share one style.
func (c *Canvas) Render() string {
	if c.released {
		return ""
	}
	lines := make([]string, c.rows)
	var sb strings.Builder
	for row := 0; row < c.rows; row++ {
		sb.Reset()
		start := 0
		for col := 1; col <= c.cols; col++ {
			if col < c.cols && c.cells[row*c.cols+col] == c.cells[row*c.cols+start] {
				continue
			}
			cell := c.cells[row*c.cols+start]
			sb.WriteString(lipgloss.NewStyle().
				Background(lipgloss.Color(cell.Hex())).
				Render(strings.Repeat(" ", col-start)))
			start = col
		}
		lines[row] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// Release drops the cell buffer. Further use of the canvas is invalid.
func (c *Canvas) Release() error {
	if c.released {
		return ErrReleased
	}
	c.released = true
	c.cells = nil
	c.cols, c.rows = 0, 0
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
