package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

const streamWriteTimeout = 5 * time.Second

// Handler returns the daemon's HTTP routes.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session_id": d.sessionID})
	})

	// Prometheus-compatible text format
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m := d.Metrics()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP motiontrail_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE motiontrail_%s counter\n", name)
			fmt.Fprintf(w, "motiontrail_%s %d\n", name, v)
		}
		gauge := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP motiontrail_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE motiontrail_%s gauge\n", name)
			fmt.Fprintf(w, "motiontrail_%s %d\n", name, v)
		}
		counter("samples_ingested_total", "Total samples ingested", m.SamplesIngested)
		counter("gestures_ingested_total", "Total gestures received from devices", m.GesturesIngested)
		counter("gestures_recognized_total", "Total gestures found by the recognizer", m.Recognized)
		counter("errors_total", "Total errors", m.ErrorCount)
		counter("batches_committed_total", "Total sample batches committed", m.BatchesCommitted)
		counter("stream_dropped_total", "Readings dropped for slow stream clients", m.StreamDropped)
		gauge("stream_clients", "Connected stream clients", int64(m.StreamClients))
		gauge("uptime_seconds", "Uptime in seconds", m.Uptime)
	})

	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Metrics())
	})

	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		s, ts, ok := d.Latest()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		out := motion.NewReading(s)
		out.Timestamp = ts
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("/ingest", d.handleIngest)
	mux.HandleFunc("/stream", d.handleStream)
	return mux
}

// handleIngest accepts one JSON reading per websocket text frame.
func (d *Daemon) handleIngest(w http.ResponseWriter, r *http.Request) {
	d.handles.Add(1)
	defer d.handles.Done()
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warn("ingest upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := d.connContext(r.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := d.log.With(zap.String("remote", r.RemoteAddr))
	log.Debug("ingest client connected")
	for {
		var reading motion.Reading
		if err := conn.ReadJSON(&reading); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				d.metrics.errors.Add(1)
				log.Warn("bad ingest frame", zap.Error(err))
				continue
			}
			log.Debug("ingest client gone", zap.Error(err))
			return
		}
		d.ingestLogged(reading, OriginDevice)
	}
}

// handleStream pushes every published reading to the client until it
// disconnects or the daemon stops.
func (d *Daemon) handleStream(w http.ResponseWriter, r *http.Request) {
	d.handles.Add(1)
	defer d.handles.Done()
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warn("stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := d.connContext(r.Context())
	defer cancel()

	// Reads only detect the client going away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	d.log.Debug("stream client connected", zap.String("remote", r.RemoteAddr))
	d.hub.Subscribe(ctx, func(reading motion.Reading) {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(reading); err != nil {
			cancel()
		}
	})

	conn.SetWriteDeadline(time.Now().Add(time.Second))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "daemon stopping"))
}

// connContext is cancelled when either the request or the daemon ends.
// Hijacked websocket connections outlive http.Server.Shutdown.
func (d *Daemon) connContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-d.quit:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
