package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/motiontrail/pkg/timeutil"
)

// renderHeader produces the top bar:
//
//	MOTIONTRAIL  |  stream  |  1204 frames  |  12:04:05.120
func renderHeader(m *Model) string {
	sep := headerSepStyle.Render(" │ ")
	parts := []string{headerBrandStyle.Render("MOTIONTRAIL")}

	if m.sourceName != "" {
		parts = append(parts, sep, headerMetaStyle.Render(m.sourceName))
	}
	frames, _ := m.scene.Stats()
	parts = append(parts, sep, headerMetaStyle.Render(fmt.Sprintf("%d frames", frames)))
	if m.lastAt != 0 {
		parts = append(parts, sep, headerMetaStyle.Render(timeutil.FormatTimestamp(m.lastAt)))
	}

	return headerBarStyle.Width(m.width).Render(strings.Join(parts, ""))
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left string
	if m.err != nil {
		left = statusErrStyle.Render(m.statusMsg)
	} else if m.statusMsg != "" {
		left = statusStyle.Render(m.statusMsg)
	}
	right := renderHints([]hint{
		{"n", "nod"},
		{"s", "swipe"},
		{"c", "circle"},
		{"q", "quit"},
	})

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		Render(bar)
}

type hint struct {
	key  string
	desc string
}

func renderHints(hints []hint) string {
	var parts []string
	for _, h := range hints {
		parts = append(parts,
			hintKeyStyle.Render(h.key)+" "+hintDescStyle.Render(h.desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}
