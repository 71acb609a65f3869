// motiontrail CLI: inspect recorded sessions and talk to the daemon.
//
// Usage:
//
//	motiontrail <command> [flags]
//
// Commands:
//
//	sessions  List recorded sessions
//	analyze   Summarize a session as markdown or JSON
//	chart     Export a session as an HTML line chart
//	status    Show daemon status
//	simulate  Push generated motion to a running daemon
//	version   Print version information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/motiontrail/internal/config"
	"github.com/Mr-Dark-debug/motiontrail/internal/database"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	dbPath     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "motiontrail",
		Short:         "Motion trail recorder and viewer tools",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "Path to SQLite database (default from config)")

	root.AddCommand(
		newSessionsCmd(g),
		newAnalyzeCmd(g),
		newChartCmd(g),
		newStatusCmd(g),
		newSimulateCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "motiontrail v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
			},
		},
	)
	return root
}

func (g *globals) load() (config.File, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.dbPath != "" {
		cfg.Daemon.DBPath = g.dbPath
	}
	return cfg, nil
}

func (g *globals) openStore() (*database.DBService, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	store, err := database.NewDBService(cfg.Daemon.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}
