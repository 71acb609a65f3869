package source

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// Stream subscribes to a daemon's /stream websocket. Each text frame is
// one JSON reading.
type Stream struct {
	URL    string
	Dialer *websocket.Dialer
	Log    *zap.Logger
}

// NewStream returns a Stream using the default dialer.
func NewStream(url string, log *zap.Logger) *Stream {
	return &Stream{URL: url, Dialer: websocket.DefaultDialer, Log: log}
}

// Subscribe implements motion.Source. A normal close from the daemon ends
// the subscription with motion.ErrSourceClosed.
func (s *Stream) Subscribe(ctx context.Context, h motion.Handler) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.URL, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Info("stream connected", zap.String("url", s.URL))
	for {
		var r motion.Reading
		if err := conn.ReadJSON(&r); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return motion.ErrSourceClosed
			}
			return fmt.Errorf("reading stream: %w", err)
		}
		h(r)
	}
}
