package ingestion

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds configuration for the ingestion daemon.
type Config struct {
	// ListenAddr is the socket the wire protocol listens on. Paths (or
	// anything ending in .sock) are Unix domain sockets, the rest TCP.
	ListenAddr string `yaml:"listen_addr"`

	// HTTPAddr serves health, metrics and the websocket endpoints.
	// Empty disables HTTP.
	HTTPAddr string `yaml:"http_addr"`

	// DBPath is the path to the SQLite database file.
	DBPath string `yaml:"db_path"`

	// Device labels the recording session.
	Device string `yaml:"device"`

	// BatchSize is the maximum number of samples to buffer before flushing.
	BatchSize int `yaml:"batch_size"`

	// FlushInterval is the maximum time between batch flushes.
	FlushInterval time.Duration `yaml:"flush_interval"`

	// SerialPort, when set, is read as an additional input.
	SerialPort string `yaml:"serial_port"`
	SerialBaud int    `yaml:"serial_baud"`

	// Recognize runs the gesture recognizer over incoming samples.
	Recognize bool `yaml:"recognize"`
}

// DefaultConfig returns sensible defaults for the ingestion daemon.
func DefaultConfig() Config {
	listenAddr := "127.0.0.1:9876"
	if runtime.GOOS != "windows" {
		listenAddr = "/tmp/motiontrail.sock"
	}

	homeDir, _ := os.UserHomeDir()

	return Config{
		ListenAddr:    listenAddr,
		HTTPAddr:      "127.0.0.1:9877",
		DBPath:        filepath.Join(homeDir, ".motiontrail", "motiontrail.db"),
		BatchSize:     500,
		FlushInterval: 500 * time.Millisecond,
		SerialBaud:    115200,
	}
}
