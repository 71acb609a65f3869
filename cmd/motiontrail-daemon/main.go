// motiontrail daemon: receives motion readings from devices, records
// them to SQLite and streams them to viewers.
//
// Usage:
//
//	motiontrail-daemon [flags]
//
// Flags:
//
//	--config     YAML config file (flags override its values)
//	--listen     TCP/UDS address for the wire protocol (default: /tmp/motiontrail.sock)
//	--http       HTTP address for health, metrics, /ingest and /stream (default: 127.0.0.1:9877)
//	--db         Path to SQLite database file (default: ~/.motiontrail/motiontrail.db)
//	--device     Label recorded on the session
//	--batch      Batch size for flush (default: 500)
//	--flush      Flush interval (default: 500ms)
//	--serial     Serial port to read as an extra input
//	--baud       Serial baud rate (default: 115200)
//	--recognize  Run the gesture recognizer on incoming samples
//	--log-level  debug, info, warn or error
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/config"
	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/ingestion"
	"github.com/Mr-Dark-debug/motiontrail/internal/logging"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

func main() {
	var flags struct {
		listen, http, db, device, serial, level string
		batch, baud                             int
		recognize                               bool
	}
	def := ingestion.DefaultConfig()
	configPath := flag.String("config", "", "YAML config file")
	flag.StringVar(&flags.listen, "listen", def.ListenAddr, "TCP/UDS listen address")
	flag.StringVar(&flags.http, "http", def.HTTPAddr, "HTTP address (empty disables)")
	flag.StringVar(&flags.db, "db", def.DBPath, "Path to SQLite database file")
	flag.StringVar(&flags.device, "device", def.Device, "Device label for the session")
	flag.IntVar(&flags.batch, "batch", def.BatchSize, "Batch size before flush")
	flushInterval := flag.Duration("flush", def.FlushInterval, "Flush interval")
	flag.StringVar(&flags.serial, "serial", def.SerialPort, "Serial port to read")
	flag.IntVar(&flags.baud, "baud", def.SerialBaud, "Serial baud rate")
	flag.BoolVar(&flags.recognize, "recognize", def.Recognize, "Run the gesture recognizer")
	flag.StringVar(&flags.level, "log-level", "", "Log level")
	flag.Parse()

	file, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := file.Daemon
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = flags.listen
		case "http":
			cfg.HTTPAddr = flags.http
		case "db":
			cfg.DBPath = flags.db
		case "device":
			cfg.Device = flags.device
		case "batch":
			cfg.BatchSize = flags.batch
		case "flush":
			cfg.FlushInterval = *flushInterval
		case "serial":
			cfg.SerialPort = flags.serial
		case "baud":
			cfg.SerialBaud = flags.baud
		case "recognize":
			cfg.Recognize = flags.recognize
		case "log-level":
			file.Log.Level = flags.level
		}
	})

	logger, err := logging.New(file.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg ingestion.Config, logger *zap.Logger) error {
	// Ensure the database directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	store, err := database.NewDBService(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	daemon := ingestion.NewDaemon(cfg, store, motion.NewHub(256), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Start(ctx); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	fmt.Println()
	fmt.Println("  MOTIONTRAIL DAEMON")
	fmt.Println()
	fmt.Printf("  Session: %s\n", daemon.SessionID())
	fmt.Printf("  Listen:  %s\n", cfg.ListenAddr)
	fmt.Printf("  DB:      %s\n", cfg.DBPath)
	if cfg.HTTPAddr != "" {
		fmt.Printf("  Stream:  ws://%s/stream\n", cfg.HTTPAddr)
		fmt.Printf("  Metrics: http://%s/metrics\n", cfg.HTTPAddr)
	}
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()

	<-ctx.Done()

	fmt.Println("\n  Shutting down gracefully...")
	return daemon.Stop()
}
