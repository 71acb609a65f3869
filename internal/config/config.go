// Package config loads the optional motiontrail YAML file shared by the
// daemon and the viewer. Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mr-Dark-debug/motiontrail/internal/ingestion"
	"github.com/Mr-Dark-debug/motiontrail/internal/logging"
)

// Source kinds the viewer can be fed from.
const (
	SourceSynthetic = "synthetic"
	SourceStream    = "stream"
	SourceSerial    = "serial"
	SourceReplay    = "replay"
)

// ViewerConfig configures the terminal viewer.
type ViewerConfig struct {
	// Source is one of synthetic, stream, serial, replay.
	Source string `yaml:"source"`
	// StreamURL is a daemon /stream websocket.
	StreamURL  string `yaml:"stream_url"`
	SerialPort string `yaml:"serial_port"`
	SerialBaud int    `yaml:"serial_baud"`
	// Session and ReplaySpeed select a recording to replay.
	Session     string  `yaml:"session"`
	ReplaySpeed float64 `yaml:"replay_speed"`
	// FrameInterval paces the cube animation.
	FrameInterval time.Duration `yaml:"frame_interval"`
	// LogFile receives viewer logs; the terminal is owned by the UI.
	LogFile string `yaml:"log_file"`
}

// File is the whole configuration file.
type File struct {
	Daemon ingestion.Config `yaml:"daemon"`
	Viewer ViewerConfig     `yaml:"viewer"`
	Log    logging.Config   `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Daemon: ingestion.DefaultConfig(),
		Viewer: ViewerConfig{
			Source:        SourceStream,
			StreamURL:     "ws://127.0.0.1:9877/stream",
			SerialBaud:    115200,
			ReplaySpeed:   1,
			FrameInterval: time.Second / 60,
			LogFile:       filepath.Join(os.TempDir(), "motiontrail-tui.log"),
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg and validates the result. Keys
// absent from the document keep their current values.
func Decode(r io.Reader, cfg *File) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

// Validate checks values a typo would otherwise turn into odd behavior.
func (f File) Validate() error {
	switch f.Viewer.Source {
	case SourceSynthetic, SourceStream, SourceSerial, SourceReplay:
	default:
		return fmt.Errorf("viewer.source: unknown source %q", f.Viewer.Source)
	}
	if f.Viewer.Source == SourceReplay && f.Viewer.Session == "" {
		return errors.New("viewer.session: required for replay")
	}
	if f.Viewer.Source == SourceSerial && f.Viewer.SerialPort == "" {
		return errors.New("viewer.serial_port: required for serial")
	}
	if f.Viewer.FrameInterval <= 0 {
		return errors.New("viewer.frame_interval: must be positive")
	}
	if f.Daemon.BatchSize <= 0 {
		return errors.New("daemon.batch_size: must be positive")
	}
	if _, err := logging.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
