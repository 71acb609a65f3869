package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
)

func newTestModel(t *testing.T, readings ...motion.Reading) Model {
	t.Helper()
	src := motion.SourceFunc(func(ctx context.Context, h motion.Handler) error {
		for _, r := range readings {
			h(r)
		}
		return motion.ErrSourceClosed
	})
	m, err := NewModel(context.Background(), Options{
		Source:        src,
		SourceName:    "test",
		FrameInterval: 5 * time.Millisecond,
		Log:           zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// step runs cmd and feeds its message back through Update.
func step(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	next, cmd := m.Update(cmd())
	return next.(Model), cmd
}

func TestNewModelRequiresSource(t *testing.T) {
	_, err := NewModel(context.Background(), Options{})
	assert.Error(t, err)
}

// TestReadingsReachScene verifies readings flow from the source into the
// scene until the source ends.
func TestReadingsReachScene(t *testing.T) {
	m := newTestModel(t,
		motion.NewReading(motion.Sample{X: 1, Y: 0, Z: 9.8}),
		motion.Reading{Y: motion.Float(2)},
	)

	m, cmd := step(t, m, m.waitReading())
	m, cmd = step(t, m, cmd)
	assert.Equal(t, motion.Sample{X: 1, Y: 2, Z: 9.8}, m.scene.Sample())
	assert.Equal(t, "2 samples", m.statusMsg)

	m, cmd = step(t, m, cmd)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, motion.ErrSourceClosed)

	view := m.View()
	assert.Contains(t, view, "MOTIONTRAIL")
	assert.Contains(t, view, "X: 1.00  Y: 2.00  Z: 9.80")
}

// TestGestureKeysAndRevert verifies a key-triggered swipe is reverted by
// the dispatcher's timer, delivered through Update.
func TestGestureKeysAndRevert(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = next.(Model)
	st := m.scene.CubeState()
	assert.Equal(t, rgb.RedTint, st.Color)
	assert.Equal(t, 1.5, st.Scale)
	assert.Equal(t, motion.GestureSwipe, st.Active)
	assert.Contains(t, m.View(), "×1.5")

	deadline := time.Now().Add(3 * time.Second)
	cmd := m.waitTask()
	for m.scene.CubeState().Color != rgb.CubeBlue {
		require.True(t, time.Now().Before(deadline), "revert never ran")
		m, cmd = step(t, m, cmd)
	}
	assert.Equal(t, 1.0, m.scene.CubeState().Scale)
	frames, _ := m.scene.Stats()
	assert.Positive(t, frames)
}

func TestQuitClosesScene(t *testing.T) {
	m := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, m.closed)

	// Later readings and a second Close are harmless.
	next, _ = m.Update(readingMsg(motion.NewReading(motion.Sample{X: 3})))
	assert.Zero(t, next.(Model).scene.Sample().X)
	assert.NoError(t, m.Close())
}

func TestNarrowLayoutHidesCube(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m = next.(Model)

	cols, rows := m.canvas.Size()
	assert.Equal(t, 40, cols)
	assert.Equal(t, 9, rows)
	assert.False(t, strings.Contains(m.View(), "×1.0"))
}
