// Package ingestion implements the motiontrail daemon. Devices push
// readings over a length-prefixed socket protocol, a websocket, or a
// serial line. Every reading updates the latest sample, is fanned out to
// /stream subscribers, and is batched into the current SQLite session.
//
// Architecture:
//
//	Device → socket / websocket / serial → Daemon.Ingest → Hub → /stream
//	                                                    └→ batch buffer → Store
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mr-Dark-debug/motiontrail/internal/analysis"
	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
	"github.com/Mr-Dark-debug/motiontrail/internal/source"
)

// Gesture origins recorded alongside each gesture.
const (
	OriginDevice     = "device"
	OriginRecognizer = "recognizer"
)

// RecognizerGap is the pause in the sample stream after which the
// recognizer window starts over.
const RecognizerGap = time.Second

// Ingester defines the interface for the ingestion service.
type Ingester interface {
	// Start opens a session and begins accepting readings.
	Start(ctx context.Context) error
	// Stop shuts down, flushing buffered samples and ending the session.
	Stop() error
	// Metrics returns the current ingestion metrics.
	Metrics() Metrics
}

// Metrics tracks throughput and error rates.
type Metrics struct {
	SessionID        string `json:"session_id"`
	SamplesIngested  int64  `json:"samples_ingested"`
	GesturesIngested int64  `json:"gestures_ingested"`
	Recognized       int64  `json:"gestures_recognized"`
	ErrorCount       int64  `json:"error_count"`
	BatchesCommitted int64  `json:"batches_committed"`
	StreamClients    int    `json:"stream_clients"`
	StreamDropped    int64  `json:"stream_dropped"`
	Uptime           int64  `json:"uptime_seconds"`
}

type counters struct {
	samples    atomic.Int64
	gestures   atomic.Int64
	recognized atomic.Int64
	errors     atomic.Int64
	batches    atomic.Int64
}

// Daemon is the production Ingester.
type Daemon struct {
	config Config
	store  database.Store
	hub    *motion.Hub
	log    *zap.Logger

	metrics   counters
	started   time.Time
	sessionID string

	mu         sync.Mutex
	latest     motion.Sample
	latestAt   int64
	hasLatest  bool
	recognizer *analysis.Recognizer

	samples   chan *database.SampleRecord
	flushStop chan struct{}
	flushDone chan struct{}

	listener net.Listener
	server   *http.Server
	httpAddr net.Addr
	upgrader websocket.Upgrader

	cancel  context.CancelFunc
	group   *errgroup.Group
	handles sync.WaitGroup
	quit    chan struct{}
	stop    sync.Once
}

var _ Ingester = (*Daemon)(nil)

// NewDaemon creates a daemon. Readings are published on hub, which may be
// shared with an in-process viewer. A nil logger discards logs.
func NewDaemon(config Config, store database.Store, hub *motion.Hub, log *zap.Logger) *Daemon {
	if log == nil {
		log = zap.NewNop()
	}
	if hub == nil {
		hub = motion.NewHub(256)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultConfig().FlushInterval
	}

	d := &Daemon{
		config:    config,
		store:     store,
		hub:       hub,
		log:       log,
		samples:   make(chan *database.SampleRecord, config.BatchSize*2),
		flushStop: make(chan struct{}),
		flushDone: make(chan struct{}),
		quit:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if config.Recognize {
		d.recognizer = analysis.NewRecognizer(analysis.DefaultRecognizerConfig())
	}
	return d
}

// Start opens a new recording session, binds the socket and HTTP
// listeners and starts the worker goroutines.
func (d *Daemon) Start(ctx context.Context) error {
	d.started = time.Now()
	d.sessionID = uuid.NewString()

	if err := d.store.CreateSession(&database.Session{
		SessionID: d.sessionID,
		Device:    d.config.Device,
		Source:    "daemon",
		StartTime: d.started.UnixNano(),
	}); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	network := Network(d.config.ListenAddr)
	if network == "unix" {
		os.Remove(d.config.ListenAddr)
	}
	listener, err := net.Listen(network, d.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", d.config.ListenAddr, err)
	}
	d.listener = listener

	var httpListener net.Listener
	if d.config.HTTPAddr != "" {
		httpListener, err = net.Listen("tcp", d.config.HTTPAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("listening on %s: %w", d.config.HTTPAddr, err)
		}
		d.httpAddr = httpListener.Addr()
		d.server = &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.group, ctx = errgroup.WithContext(ctx)

	go d.flushLoop()

	d.group.Go(func() error { return d.acceptLoop(ctx) })

	if d.server != nil {
		d.group.Go(func() error {
			if err := d.server.Serve(httpListener); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	if d.config.SerialPort != "" {
		serial := source.NewSerial(d.config.SerialPort, d.config.SerialBaud, d.log.Named("serial"))
		d.group.Go(func() error {
			err := serial.Subscribe(ctx, func(r motion.Reading) { d.ingestLogged(r, OriginDevice) })
			switch {
			case err == nil, errors.Is(err, context.Canceled):
			case errors.Is(err, motion.ErrSourceClosed):
				d.log.Warn("serial input closed", zap.String("port", d.config.SerialPort))
			default:
				d.log.Error("serial input failed", zap.String("port", d.config.SerialPort), zap.Error(err))
			}
			return nil
		})
	}

	d.log.Info("daemon started",
		zap.String("session_id", d.sessionID),
		zap.String("listen", listener.Addr().String()),
		zap.String("network", network),
		zap.String("http", d.config.HTTPAddr),
		zap.Bool("recognize", d.recognizer != nil))
	return nil
}

// Stop closes the listeners and every open connection, flushes buffered
// samples and ends the session. It is safe to call more than once.
func (d *Daemon) Stop() error {
	var errs []error
	d.stop.Do(func() {
		d.log.Info("daemon stopping")
		close(d.quit)
		if d.cancel != nil {
			d.cancel()
		}
		if d.listener != nil {
			d.listener.Close()
		}
		if d.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := d.server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutting down http: %w", err))
			}
			cancel()
		}
		if d.group != nil {
			if err := d.group.Wait(); err != nil {
				errs = append(errs, err)
			}
		}
		d.handles.Wait()

		if d.group != nil {
			close(d.flushStop)
			<-d.flushDone
		}

		if d.sessionID != "" {
			if err := d.store.EndSession(d.sessionID, time.Now().UnixNano()); err != nil {
				errs = append(errs, fmt.Errorf("ending session: %w", err))
			}
		}
		m := d.Metrics()
		d.log.Info("daemon stopped",
			zap.Int64("samples", m.SamplesIngested),
			zap.Int64("gestures", m.GesturesIngested),
			zap.Int64("batches", m.BatchesCommitted))
	})
	return errors.Join(errs...)
}

// Metrics returns a snapshot of the current ingestion metrics.
func (d *Daemon) Metrics() Metrics {
	m := Metrics{
		SessionID:        d.sessionID,
		SamplesIngested:  d.metrics.samples.Load(),
		GesturesIngested: d.metrics.gestures.Load(),
		Recognized:       d.metrics.recognized.Load(),
		ErrorCount:       d.metrics.errors.Load(),
		BatchesCommitted: d.metrics.batches.Load(),
		StreamClients:    d.hub.Subscribers(),
		StreamDropped:    d.hub.Dropped(),
	}
	if !d.started.IsZero() {
		m.Uptime = int64(time.Since(d.started).Seconds())
	}
	return m
}

// SessionID returns the current recording session.
func (d *Daemon) SessionID() string { return d.sessionID }

// Addr returns the bound socket address once started.
func (d *Daemon) Addr() net.Addr {
	if d.listener == nil {
		return nil
	}
	return d.listener.Addr()
}

// HTTPAddr returns the bound HTTP address once started.
func (d *Daemon) HTTPAddr() net.Addr { return d.httpAddr }

// Latest returns the merged latest sample and its timestamp.
func (d *Daemon) Latest() (motion.Sample, int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest, d.latestAt, d.hasLatest
}

// Ingest accepts one reading from any input. Missing axes keep their
// previous values. Samples are queued for the next batch; gestures are
// written immediately.
func (d *Daemon) Ingest(r motion.Reading, origin string) error {
	if !r.HasSample() && r.Gesture == motion.GestureNone {
		return errors.New("empty reading")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	ts := r.Timestamp
	if ts == 0 {
		ts = time.Now().UnixNano()
	}

	out := motion.Reading{Gesture: r.Gesture, Timestamp: ts}
	recognized := motion.GestureNone

	if r.HasSample() {
		d.mu.Lock()
		if d.recognizer != nil && d.hasLatest && ts-d.latestAt > int64(RecognizerGap) {
			d.recognizer.Reset()
		}
		d.latest = d.latest.Apply(r)
		d.latestAt = ts
		d.hasLatest = true
		s := d.latest
		if d.recognizer != nil {
			recognized = d.recognizer.Feed(s)
		}
		d.mu.Unlock()

		out.X, out.Y, out.Z = motion.Float(s.X), motion.Float(s.Y), motion.Float(s.Z)
		d.enqueue(&database.SampleRecord{SessionID: d.sessionID, Timestamp: ts, X: s.X, Y: s.Y, Z: s.Z})
		d.metrics.samples.Add(1)
	}

	d.hub.Publish(out)

	var err error
	if r.Gesture != motion.GestureNone {
		d.metrics.gestures.Add(1)
		err = d.recordGesture(ts, r.Gesture, origin)
	}
	if recognized != motion.GestureNone {
		d.metrics.recognized.Add(1)
		d.log.Debug("gesture recognized", zap.Stringer("gesture", recognized))
		d.hub.Publish(motion.Reading{Gesture: recognized, Timestamp: ts})
		if rerr := d.recordGesture(ts, recognized, OriginRecognizer); err == nil {
			err = rerr
		}
	}
	return err
}

func (d *Daemon) ingestLogged(r motion.Reading, origin string) {
	if err := d.Ingest(r, origin); err != nil {
		d.metrics.errors.Add(1)
		d.log.Warn("ingest failed", zap.String("origin", origin), zap.Error(err))
	}
}

func (d *Daemon) recordGesture(ts int64, g motion.Gesture, origin string) error {
	if err := d.store.InsertGesture(&database.GestureRecord{
		SessionID: d.sessionID,
		Timestamp: ts,
		Gesture:   g.String(),
		Origin:    origin,
	}); err != nil {
		return fmt.Errorf("inserting gesture: %w", err)
	}
	return nil
}

// enqueue hands a sample to the flush loop, inserting directly when the
// buffer is full so nothing is lost.
func (d *Daemon) enqueue(rec *database.SampleRecord) {
	select {
	case d.samples <- rec:
	default:
		if err := d.store.InsertSample(rec); err != nil {
			d.metrics.errors.Add(1)
			d.log.Error("direct sample insert", zap.Error(err))
		}
	}
}

// acceptLoop handles incoming socket connections.
func (d *Daemon) acceptLoop(ctx context.Context) error {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			d.log.Error("accept failed", zap.Error(err))
			continue
		}

		d.handles.Add(1)
		go d.handleConnection(ctx, conn)
	}
}

// handleConnection reads frames from one client, acknowledging each.
func (d *Daemon) handleConnection(ctx context.Context, conn net.Conn) {
	defer d.handles.Done()
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := d.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("connection opened")

	for {
		msgType, payload, err := ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				log.Debug("connection closed")
				return
			}
			d.metrics.errors.Add(1)
			log.Warn("reading frame", zap.Error(err))
			if errors.Is(err, ErrMessageTooLarge) {
				conn.Write([]byte{AckError})
			}
			return
		}

		ack := AckOK
		if err := d.processMessage(msgType, payload); err != nil {
			d.metrics.errors.Add(1)
			log.Warn("processing message", zap.Stringer("type", msgType), zap.Error(err))
			ack = AckError
		}
		if _, err := conn.Write([]byte{ack}); err != nil {
			return
		}
	}
}

// processMessage decodes a frame and routes its readings to Ingest.
func (d *Daemon) processMessage(msgType MessageType, payload []byte) error {
	switch msgType {
	case MsgSample:
		var r motion.Reading
		if err := json.Unmarshal(payload, &r); err != nil {
			return fmt.Errorf("unmarshaling sample: %w", err)
		}
		if !r.HasSample() {
			return errors.New("sample message has no axes")
		}
		return d.Ingest(r, OriginDevice)

	case MsgGesture:
		var r motion.Reading
		if err := json.Unmarshal(payload, &r); err != nil {
			return fmt.Errorf("unmarshaling gesture: %w", err)
		}
		if r.Gesture == motion.GestureNone {
			return errors.New("gesture message has no recognized gesture")
		}
		return d.Ingest(motion.Reading{Gesture: r.Gesture, Timestamp: r.Timestamp}, OriginDevice)

	case MsgBatch:
		var batch BatchMessage
		if err := json.Unmarshal(payload, &batch); err != nil {
			return fmt.Errorf("unmarshaling batch: %w", err)
		}
		var errs []error
		for _, r := range batch.Readings {
			if err := d.Ingest(r, OriginDevice); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	default:
		return fmt.Errorf("unknown message type: %s", msgType)
	}
}

// flushLoop commits buffered samples when BatchSize accumulate or
// FlushInterval elapses. On stop it drains the channel before returning.
func (d *Daemon) flushLoop() {
	defer close(d.flushDone)

	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	buf := make([]*database.SampleRecord, 0, d.config.BatchSize)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if err := d.store.BatchInsertSamples(buf); err != nil {
			d.metrics.errors.Add(1)
			d.log.Error("flushing sample batch", zap.Int("size", len(buf)), zap.Error(err))
		} else {
			d.metrics.batches.Add(1)
		}
		buf = buf[:0]
	}

	for {
		select {
		case rec := <-d.samples:
			buf = append(buf, rec)
			if len(buf) >= d.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-d.flushStop:
			for {
				select {
				case rec := <-d.samples:
					buf = append(buf, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}
