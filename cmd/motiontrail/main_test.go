package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/motiontrail/internal/database"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motiontrail.db")
	store, err := database.NewDBService(path)
	require.NoError(t, err)
	defer store.Close()

	start := time.Now().Add(-time.Minute).UnixNano()
	end := start + int64(2*time.Second)
	require.NoError(t, store.CreateSession(&database.Session{SessionID: "sess-a", Device: "wand", Source: "daemon", StartTime: start}))
	require.NoError(t, store.BatchInsertSamples([]*database.SampleRecord{
		{SessionID: "sess-a", Timestamp: start, X: 1},
		{SessionID: "sess-a", Timestamp: end, X: 3, Y: 4},
	}))
	require.NoError(t, store.EndSession("sess-a", end))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSessionsCommand(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "sessions", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "sess-a")
	assert.Contains(t, out, "wand")
	assert.Contains(t, out, "2.0s")

	out, err = execute(t, "sessions", "--db", db, "--device", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded.")
}

func TestAnalyzeCommand(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "analyze", "sess-a", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "| Peak Speed (X/Y) | 5.00 |")

	out, err = execute(t, "analyze", "sess-a", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"samples": 2`)

	_, err = execute(t, "analyze", "missing", "--db", db)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestChartCommand(t *testing.T) {
	db := seedDB(t)
	target := filepath.Join(t.TempDir(), "chart.html")

	out, err := execute(t, "chart", "sess-a", "--db", db, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "2 samples")

	html, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(html), "wand")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "motiontrail v"+Version)
}
