package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
	"github.com/Mr-Dark-debug/motiontrail/internal/trail"
)

// ────────────────────────────────────────────────────────────
// Color Palette: GitHub Dark aesthetic
// ────────────────────────────────────────────────────────────

var (
	colorBg        = lipgloss.Color(rgb.Backdrop.Hex())
	colorBgSurface = lipgloss.Color("#1c2128")

	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#484f58")

	colorBlue   = lipgloss.Color("#58a6ff")
	colorGreen  = lipgloss.Color("#3fb950")
	colorRed    = lipgloss.Color("#f85149")
	colorYellow = lipgloss.Color("#d29922")

	colorDivider = lipgloss.Color(rgb.Wireframe.Hex())
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Panes
var (
	cubePaneStyle = lipgloss.NewStyle().
			Background(colorBg).
			Border(lipgloss.Border{Left: "│"}, false, false, false, true).
			BorderForeground(colorDivider)

	cubeLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	readoutStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	readoutLabelStyle = lipgloss.NewStyle().
				Foreground(colorTextDim)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Background(colorBgSurface).
			Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// speedStyle colors the readout by the trail's speed class.
func speedStyle(c trail.SpeedClass) lipgloss.Style {
	switch c {
	case trail.SpeedHigh:
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	case trail.SpeedMedium:
		return lipgloss.NewStyle().Foreground(colorGreen)
	default:
		return lipgloss.NewStyle().Foreground(colorBlue)
	}
}

// gestureStyle highlights the active cube effect.
var gestureStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
