// motiontrail viewer: the motion trail and gesture cube in a terminal.
//
// Usage:
//
//	motiontrail-tui [flags]
//
// Flags:
//
//	--config   YAML config file (flags override its values)
//	--source   synthetic, stream, serial or replay (default: stream)
//	--url      Daemon stream URL (default: ws://127.0.0.1:9877/stream)
//	--serial   Serial port for --source serial
//	--baud     Serial baud rate
//	--db       SQLite database for --source replay
//	--session  Session ID for --source replay
//	--speed    Replay speed multiplier (0 = no pacing)
//	--log      Log file (default: $TMPDIR/motiontrail-tui.log)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/config"
	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/logging"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/source"
	"github.com/Mr-Dark-debug/motiontrail/internal/tui"
)

func main() {
	def := config.Default()
	configPath := flag.String("config", "", "YAML config file")
	src := flag.String("source", def.Viewer.Source, "synthetic, stream, serial or replay")
	url := flag.String("url", def.Viewer.StreamURL, "Daemon stream URL")
	port := flag.String("serial", def.Viewer.SerialPort, "Serial port")
	baud := flag.Int("baud", def.Viewer.SerialBaud, "Serial baud rate")
	dbPath := flag.String("db", def.Daemon.DBPath, "SQLite database for replay")
	session := flag.String("session", def.Viewer.Session, "Session ID to replay")
	speed := flag.Float64("speed", def.Viewer.ReplaySpeed, "Replay speed multiplier")
	logFile := flag.String("log", def.Viewer.LogFile, "Log file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Viewer.Source = *src
		case "url":
			cfg.Viewer.StreamURL = *url
		case "serial":
			cfg.Viewer.SerialPort = *port
		case "baud":
			cfg.Viewer.SerialBaud = *baud
		case "db":
			cfg.Daemon.DBPath = *dbPath
		case "session":
			cfg.Viewer.Session = *session
		case "speed":
			cfg.Viewer.ReplaySpeed = *speed
		case "log":
			cfg.Viewer.LogFile = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns the terminal; logs go to a file.
	logCfg := cfg.Log
	logCfg.Output = cfg.Viewer.LogFile
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("viewer failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.File, logger *zap.Logger) error {
	var src motion.Source
	switch cfg.Viewer.Source {
	case config.SourceSynthetic:
		src = source.NewSynthetic()
	case config.SourceStream:
		src = source.NewStream(cfg.Viewer.StreamURL, logger.Named("stream"))
	case config.SourceSerial:
		src = source.NewSerial(cfg.Viewer.SerialPort, cfg.Viewer.SerialBaud, logger.Named("serial"))
	case config.SourceReplay:
		store, err := database.NewDBService(cfg.Daemon.DBPath)
		if err != nil {
			return fmt.Errorf("opening database at %s: %w", cfg.Daemon.DBPath, err)
		}
		defer store.Close()
		src = &source.Replay{
			Store:     store,
			SessionID: cfg.Viewer.Session,
			Speed:     cfg.Viewer.ReplaySpeed,
			Log:       logger.Named("replay"),
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model, err := tui.NewModel(ctx, tui.Options{
		Source:        src,
		SourceName:    cfg.Viewer.Source,
		FrameInterval: cfg.Viewer.FrameInterval,
		Log:           logger,
	})
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
