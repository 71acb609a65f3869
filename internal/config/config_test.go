package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

// TestLoadOverlaysDefaults verifies keys missing from the file keep their
// defaults and durations parse from strings.
func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motiontrail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
daemon:
  listen_addr: 127.0.0.1:7000
  flush_interval: 250ms
  recognize: true
viewer:
  source: replay
  session: abc
  replay_speed: 2.5
log:
  level: debug
  encoding: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Daemon.ListenAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.Daemon.FlushInterval)
	assert.True(t, cfg.Daemon.Recognize)
	assert.Equal(t, Default().Daemon.BatchSize, cfg.Daemon.BatchSize)
	assert.Equal(t, SourceReplay, cfg.Viewer.Source)
	assert.Equal(t, 2.5, cfg.Viewer.ReplaySpeed)
	assert.Equal(t, time.Second/60, cfg.Viewer.FrameInterval)
	assert.Equal(t, "console", cfg.Log.Encoding)
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "viewer:\n  colour: red\n",
		"unknown source":  "viewer:\n  source: carrier-pigeon\n",
		"replay no id":    "viewer:\n  source: replay\n",
		"serial no port":  "viewer:\n  source: serial\n",
		"bad level":       "log:\n  level: loud\n",
		"zero batch size": "daemon:\n  batch_size: 0\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Decode(strings.NewReader(doc), &cfg))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
