package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// renderCubePane draws the wireframe with a one-line material label.
func renderCubePane(m *Model, width, height int) string {
	inner := width - 1 // left border
	if inner <= 0 || height <= 0 {
		return ""
	}

	st := m.scene.CubeState()
	label := cubeLabelStyle.Render(fmt.Sprintf("%s  ×%.1f", st.Color, st.Scale))
	if st.Active != motion.GestureNone {
		label += "  " + gestureStyle.Render(st.Active.String())
	}

	cube := m.mesh.Render(inner, height-1)
	return cubePaneStyle.
		Width(inner).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, label, cube))
}

// renderReadout is the numeric line under the panes: dim labels, values
// colored by speed.
func renderReadout(m *Model) string {
	style := speedStyle(m.scene.SpeedClass())
	fields := m.scene.Readout().Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, readoutLabelStyle.Render(f[0]+":")+" "+style.Render(f[1]))
	}
	return readoutStyle.Width(m.width).Render(strings.Join(parts, "  "))
}
