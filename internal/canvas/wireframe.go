package canvas

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Mr-Dark-debug/motiontrail/internal/cube"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
)

// Camera parameters for the cube view: a unit cube seen from z=3 with a
// 75 degree vertical field of view.
const (
	cameraDistance = 3.0
	fieldOfView    = 75 * math.Pi / 180
	// cellAspect corrects for terminal cells being twice as tall as wide.
	cellAspect = 2.0
)

var (
	unitX = r3.Vec{X: 1}
	unitY = r3.Vec{Y: 1}
	unitZ = r3.Vec{Z: 1}
)

// cubeEdges indexes pairs of cubeCorners.
var cubeEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func cubeCorners() [8]r3.Vec {
	var out [8]r3.Vec
	for i := range out {
		out[i] = r3.Vec{
			X: float64(i&1) - 0.5,
			Y: float64(i>>1&1) - 0.5,
			Z: float64(i>>2&1) - 0.5,
		}
	}
	return out
}

// Wireframe is a unit cube mesh drawn as projected edges. It implements
// cube.Mesh.
type Wireframe struct {
	rotation cube.Vec3
	scale    cube.Vec3
	color    rgb.Color
}

// NewWireframe returns a unit cube at rest.
func NewWireframe() *Wireframe {
	return &Wireframe{scale: cube.Uniform(1), color: rgb.CubeBlue}
}

func (w *Wireframe) SetRotation(r cube.Vec3) { w.rotation = r }
func (w *Wireframe) SetScale(s cube.Vec3)    { w.scale = s }
func (w *Wireframe) SetColor(c rgb.Color)    { w.color = c }

// Color returns the current material color.
func (w *Wireframe) Color() rgb.Color { return w.color }

// Vertices returns the eight corners in world space: scaled, then rotated
// with X-Y-Z Euler angles (z applied first).
func (w *Wireframe) Vertices() [8]r3.Vec {
	rx := r3.NewRotation(w.rotation.X, unitX)
	ry := r3.NewRotation(w.rotation.Y, unitY)
	rz := r3.NewRotation(w.rotation.Z, unitZ)

	out := cubeCorners()
	for i, v := range out {
		v = r3.Vec{X: v.X * w.scale.X, Y: v.Y * w.scale.Y, Z: v.Z * w.scale.Z}
		out[i] = rx.Rotate(ry.Rotate(rz.Rotate(v)))
	}
	return out
}

// project maps a world point to a cell, with the cube centered in a
// cols x rows grid. Points behind the camera report ok=false.
func project(v r3.Vec, cols, rows int) (col, row int, ok bool) {
	depth := cameraDistance - v.Z
	if depth <= 0.01 {
		return 0, 0, false
	}
	focal := float64(rows) / 2 / math.Tan(fieldOfView/2)
	x := v.X / depth * focal * cellAspect
	y := -v.Y / depth * focal
	return int(math.Round(x + float64(cols)/2)), int(math.Round(y + float64(rows)/2)), true
}

// Render draws the cube's edges into a cols x rows block colored with the
// current material color.
func (w *Wireframe) Render(cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	plot := func(col, row int, r rune) {
		if col >= 0 && row >= 0 && col < cols && row < rows {
			grid[row][col] = r
		}
	}

	verts := w.Vertices()
	var pts [8][2]int
	var vis [8]bool
	for i, v := range verts {
		pts[i][0], pts[i][1], vis[i] = project(v, cols, rows)
	}
	for _, e := range cubeEdges {
		a, b := e[0], e[1]
		if !vis[a] || !vis[b] {
			continue
		}
		line(pts[a][0], pts[a][1], pts[b][0], pts[b][1], func(c, r int) { plot(c, r, '·') })
	}
	for i := range pts {
		if vis[i] {
			plot(pts[i][0], pts[i][1], '●')
		}
	}

	lines := make([]string, rows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(w.color.Hex())).
		Render(strings.Join(lines, "\n"))
}

// line walks the cells from (x0,y0) to (x1,y1) with Bresenham's algorithm.
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
