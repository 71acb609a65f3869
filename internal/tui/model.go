package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/canvas"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/rgb"
	"github.com/Mr-Dark-debug/motiontrail/internal/scene"
)

// Options configures a viewer.
type Options struct {
	Source motion.Source
	// SourceName is shown in the header.
	SourceName    string
	FrameInterval time.Duration
	Log           *zap.Logger
}

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Model is the root BubbleTea model for the viewer. All scene access
// happens in Update, so the scene sees a single thread.
type Model struct {
	scene  *scene.Scene
	canvas *canvas.Canvas
	mesh   *canvas.Wireframe
	disp   *scene.Dispatcher
	feed   *feed
	log    *zap.Logger

	sourceName string
	lastAt     int64

	width  int
	height int

	statusMsg string
	err       error
	closed    bool
}

// NewModel builds the scene, starts its render loop and subscribes to the
// source.
func NewModel(ctx context.Context, opts Options) (Model, error) {
	if opts.Source == nil {
		return Model{}, fmt.Errorf("tui: no source")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	cv, err := canvas.New(0, 0, rgb.Backdrop)
	if err != nil {
		return Model{}, err
	}
	mesh := canvas.NewWireframe()
	disp := scene.NewDispatcher(64)

	sc, err := scene.New(scene.Surfaces{Trail: cv, Mesh: mesh, Release: cv.Release}, disp, log.Named("scene"))
	if err != nil {
		disp.Close()
		return Model{}, err
	}
	sc.Start(disp, opts.FrameInterval)

	return Model{
		scene:      sc,
		canvas:     cv,
		mesh:       mesh,
		disp:       disp,
		feed:       startFeed(ctx, opts.Source, 256),
		log:        log,
		sourceName: opts.SourceName,
		statusMsg:  "Waiting for samples...",
	}, nil
}

// Close tears the viewer down. It is safe to call after the quit key has
// already done so.
func (m *Model) Close() error {
	m.closed = true
	m.feed.stop()
	err := m.scene.Close()
	m.disp.Close()
	return err
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type readingMsg motion.Reading
type taskMsg func()
type sourceDoneMsg struct{ err error }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitTask(), m.waitReading())
}

// waitTask delivers the next timer or frame callback to Update.
func (m Model) waitTask() tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-m.disp.Tasks():
			return taskMsg(fn)
		case <-m.disp.Done():
			return nil
		}
	}
}

// waitReading delivers the next reading, or the source's exit.
func (m Model) waitReading() tea.Cmd {
	return func() tea.Msg {
		r, ok := <-m.feed.readings
		if !ok {
			return sourceDoneMsg{err: m.feed.err}
		}
		return readingMsg(r)
	}
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case taskMsg:
		if m.closed {
			return m, nil
		}
		msg()
		return m, m.waitTask()

	case readingMsg:
		if m.closed {
			return m, nil
		}
		r := motion.Reading(msg)
		m.scene.Apply(r)
		if r.Timestamp != 0 {
			m.lastAt = r.Timestamp
		}
		_, samples := m.scene.Stats()
		m.statusMsg = fmt.Sprintf("%d samples", samples)
		return m, m.waitReading()

	case sourceDoneMsg:
		m.err = msg.err
		if msg.err != nil {
			m.log.Warn("source stopped", zap.Error(msg.err))
			m.statusMsg = fmt.Sprintf("Source stopped: %v", msg.err)
		} else {
			m.statusMsg = "Source finished"
		}
		return m, nil
	}

	return m, nil
}

// handleKey maps keys to gestures so effects can be tried without a device.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if err := m.Close(); err != nil {
			m.log.Warn("closing scene", zap.Error(err))
		}
		return m, tea.Quit
	case "n":
		m.scene.Gesture(motion.GestureNod)
	case "s":
		m.scene.Gesture(motion.GestureSwipe)
	case "c":
		m.scene.Gesture(motion.GestureCircle)
	}
	return m, nil
}

// layout sizes the trail canvas to the left pane. The trail viewport is
// the canvas size in pixels.
func (m *Model) layout() {
	cols, rows := m.trailPaneSize()
	if err := m.canvas.Resize(cols, rows); err != nil {
		m.log.Debug("canvas resize", zap.Error(err))
		return
	}
	m.scene.Resize(m.canvas.Viewport())
}

// chrome is the header, readout and footer lines.
const chrome = 3

func (m Model) bodyHeight() int {
	if h := m.height - chrome; h > 0 {
		return h
	}
	return 0
}

func (m Model) trailPaneSize() (cols, rows int) {
	if m.width < 60 {
		return m.width, m.bodyHeight()
	}
	return m.width * 60 / 100, m.bodyHeight()
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	if m.closed {
		return ""
	}

	header := renderHeader(&m)
	body := m.renderBody()
	readout := renderReadout(&m)
	footer := renderFooter(&m)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, readout, footer)
}

// renderBody lays the panes side by side, collapsing to the trail alone
// on narrow terminals.
func (m Model) renderBody() string {
	trailPane := m.canvas.Render()
	if m.width < 60 {
		return trailPane
	}
	cols, _ := m.trailPaneSize()
	return lipgloss.JoinHorizontal(lipgloss.Top, trailPane, renderCubePane(&m, m.width-cols, m.bodyHeight()))
}
