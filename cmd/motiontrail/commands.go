package main

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/motiontrail/internal/analysis"
	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/ingestion"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/source"
	"github.com/Mr-Dark-debug/motiontrail/pkg/timeutil"
)

// newSessionsCmd lists recorded sessions, newest first.
func newSessionsCmd(g *globals) *cobra.Command {
	var device string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			filter := database.SessionFilter{Limit: limit}
			if device != "" {
				filter.Device = &device
			}
			sessions, err := store.ListSessions(filter)
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sessions)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tDEVICE\tSTARTED\tDURATION\tSAMPLES\tGESTURES")
			for _, s := range sessions {
				span := timeutil.FormatDuration(timeutil.SessionSpan(s.StartTime, s.EndTime).Milliseconds())
				if s.EndTime == nil {
					span += " (open)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					s.SessionID, s.Device, timeutil.RelativeTime(s.StartTime), span, s.SampleCount, s.GestureCount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "Filter by device label")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// newAnalyzeCmd prints a session report.
func newAnalyzeCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze <session-id>",
		Short: "Summarize a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			analyzer := analysis.NewAnalyzer(store)
			report, err := analyzer.AnalyzeSession(args[0])
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			case "markdown":
				fmt.Fprint(out, analyzer.FormatReport(report))
				return nil
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown, json")
	return cmd
}

// newChartCmd writes an HTML chart of a session.
func newChartCmd(g *globals) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "chart <session-id>",
		Short: "Export a session as an HTML line chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := store.GetSession(args[0])
			if err != nil {
				return err
			}
			samples, err := store.QuerySamples(sess.SessionID)
			if err != nil {
				return fmt.Errorf("loading samples: %w", err)
			}

			if output == "" {
				output = sess.SessionID + ".html"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()

			title := "motiontrail " + sess.SessionID
			if sess.Device != "" {
				title += " (" + sess.Device + ")"
			}
			if err := analysis.RenderChart(f, title, samples); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d samples)\n", output, len(samples))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <session-id>.html)")
	return cmd
}

// newStatusCmd queries the daemon's metrics endpoint.
func newStatusCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := g.load()
				if err != nil {
					return err
				}
				addr = cfg.Daemon.HTTPAddr
			}
			url := fmt.Sprintf("http://%s/api/metrics", addr)
			out := cmd.OutOrStdout()

			client := &http.Client{Timeout: 3 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				fmt.Fprintln(out, "⚠ motiontrail daemon is not running.")
				fmt.Fprintln(out, "  Start it with: motiontrail-daemon")
				fmt.Fprintf(out, "  (tried: %s)\n", url)
				return fmt.Errorf("daemon unreachable: %w", err)
			}
			defer resp.Body.Close()

			var m ingestion.Metrics
			if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
				return fmt.Errorf("decoding metrics: %w", err)
			}

			fmt.Fprintln(out, "✅ motiontrail daemon is running.")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Session:             %s\n", m.SessionID)
			fmt.Fprintf(out, "  Samples ingested:    %d\n", m.SamplesIngested)
			fmt.Fprintf(out, "  Gestures:            %d\n", m.GesturesIngested)
			fmt.Fprintf(out, "  Recognized:          %d\n", m.Recognized)
			fmt.Fprintf(out, "  Batches committed:   %d\n", m.BatchesCommitted)
			fmt.Fprintf(out, "  Stream clients:      %d\n", m.StreamClients)
			fmt.Fprintf(out, "  Errors:              %d\n", m.ErrorCount)
			fmt.Fprintf(out, "  Uptime:              %ds\n", m.Uptime)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "Daemon HTTP address (default from config)")
	return cmd
}

// newSimulateCmd streams synthetic motion into a daemon over the wire
// protocol, for trying the viewer without hardware.
func newSimulateCmd(g *globals) *cobra.Command {
	var addr string
	var duration time.Duration
	var rate int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Push generated motion to a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := g.load()
				if err != nil {
					return err
				}
				addr = cfg.Daemon.ListenAddr
			}
			if rate <= 0 {
				return fmt.Errorf("rate must be positive")
			}

			client, err := ingestion.Dial(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			src := &source.Synthetic{Interval: time.Second / time.Duration(rate), GestureEvery: 3 * time.Second}
			var sent int
			var sendErr error
			err = src.Subscribe(ctx, func(r motion.Reading) {
				if sendErr != nil {
					return
				}
				if sendErr = client.SendReading(r); sendErr != nil {
					cancel()
					return
				}
				sent++
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d readings to %s\n", sent, addr)
			if sendErr != nil {
				return sendErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Daemon listen address (default from config)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	cmd.Flags().IntVar(&rate, "rate", 100, "Samples per second")
	return cmd
}
