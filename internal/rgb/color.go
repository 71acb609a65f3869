// Package rgb holds the 24-bit colors shared by the trail and cube
// renderers, and the alpha compositing used by terminal surfaces.
package rgb

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xRRGGBB value.
type Color uint32

// Named colors. The trail classes use the CSS keyword values; the cube
// palette matches the baseline material and its gesture tints.
const (
	Black     Color = 0x000000
	White     Color = 0xffffff
	Blue      Color = 0x0000ff
	Green     Color = 0x008000
	Red       Color = 0xff0000
	CubeBlue  Color = 0x2194ce
	RedTint   Color = 0xff4d4d
	Purple    Color = 0x9933ff
	Backdrop  Color = 0x0d1117
	Wireframe Color = 0x30363d
)

// RGB splits the color into its 8-bit channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

func (c Color) String() string { return c.Hex() }

// Colorful converts to a go-colorful value for blending.
func (c Color) Colorful() colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// FromColorful packs a go-colorful value, clamping out-of-gamut channels.
func FromColorful(cc colorful.Color) Color {
	r, g, b := cc.Clamped().RGB255()
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Over composites src over dst with the given opacity (source-over).
// alpha is clamped to [0, 1].
func Over(dst, src Color, alpha float64) Color {
	switch {
	case alpha <= 0:
		return dst
	case alpha >= 1:
		return src
	}
	return FromColorful(dst.Colorful().BlendRgb(src.Colorful(), alpha))
}
