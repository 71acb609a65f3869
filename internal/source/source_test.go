package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/zap/zaptest"

	"github.com/Mr-Dark-debug/motiontrail/internal/database"
	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

func collect(readings *[]motion.Reading) motion.Handler {
	return func(r motion.Reading) { *readings = append(*readings, r) }
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want motion.Reading
		err  bool
	}{
		{line: "1,2,3", want: motion.NewReading(motion.Sample{X: 1, Y: 2, Z: 3})},
		{line: " -0.5, 4 ,9.81 ", want: motion.NewReading(motion.Sample{X: -0.5, Y: 4, Z: 9.81})},
		{line: "1,2,3,swipe", want: func() motion.Reading {
			r := motion.NewReading(motion.Sample{X: 1, Y: 2, Z: 3})
			r.Gesture = motion.GestureSwipe
			return r
		}()},
		{line: `{"x":1.5,"gesture":"nod"}`, want: motion.Reading{X: motion.Float(1.5), Gesture: motion.GestureNod}},
		{line: "1,2", err: true},
		{line: "a,b,c", err: true},
		{line: "{nope", err: true},
		{line: "NaN,0,0", err: true},
		{line: "+Inf,0,0", err: true},
		{line: "1,-Inf,3,nod", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.err {
				assert.ErrorIs(t, err, ErrBadLine)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

// TestSerialSkipsBadLines verifies garbage between readings is dropped and
// EOF ends the subscription.
func TestSerialSkipsBadLines(t *testing.T) {
	var opened *serial.Mode
	s := &Serial{
		Port: "/dev/ttyFAKE",
		Baud: 9600,
		Log:  zaptest.NewLogger(t),
		Open: func(port string, mode *serial.Mode) (io.ReadCloser, error) {
			opened = mode
			return io.NopCloser(strings.NewReader("1,0,0\n\nboot banner\n0,2,0,circle\n")), nil
		},
	}

	var got []motion.Reading
	err := s.Subscribe(context.Background(), collect(&got))
	assert.ErrorIs(t, err, motion.ErrSourceClosed)
	require.NotNil(t, opened)
	assert.Equal(t, 9600, opened.BaudRate)
	require.Len(t, got, 2)
	assert.Equal(t, motion.GestureCircle, got[1].Gesture)
}

func TestSerialOpenError(t *testing.T) {
	s := &Serial{Port: "/dev/none", Open: func(string, *serial.Mode) (io.ReadCloser, error) {
		return nil, errors.New("no such device")
	}}
	err := s.Subscribe(context.Background(), func(motion.Reading) {})
	assert.ErrorContains(t, err, "opening serial port /dev/none")
}

func TestReplay(t *testing.T) {
	store, err := database.NewDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.CreateSession(&database.Session{SessionID: "r1", StartTime: 100}))
	require.NoError(t, store.BatchInsertSamples([]*database.SampleRecord{
		{SessionID: "r1", Timestamp: 100, X: 1},
		{SessionID: "r1", Timestamp: 200, X: 2},
	}))
	require.NoError(t, store.InsertGesture(&database.GestureRecord{SessionID: "r1", Timestamp: 200, Gesture: "swipe", Origin: "device"}))
	require.NoError(t, store.InsertGesture(&database.GestureRecord{SessionID: "r1", Timestamp: 300, Gesture: "nod", Origin: "recognizer"}))

	r := &Replay{Store: store, SessionID: "r1", Log: zaptest.NewLogger(t)}
	var got []motion.Reading
	err = r.Subscribe(context.Background(), collect(&got))
	assert.ErrorIs(t, err, motion.ErrSourceClosed)

	require.Len(t, got, 3)
	assert.Equal(t, 1.0, *got[0].X)
	assert.Equal(t, motion.GestureSwipe, got[1].Gesture, "gesture rides on the sample at the same instant")
	assert.False(t, got[2].HasSample())
	assert.Equal(t, motion.GestureNod, got[2].Gesture)
}

func TestReplayPacedCancel(t *testing.T) {
	store, err := database.NewDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.CreateSession(&database.Session{SessionID: "r2", StartTime: 0}))
	require.NoError(t, store.BatchInsertSamples([]*database.SampleRecord{
		{SessionID: "r2", Timestamp: 0},
		{SessionID: "r2", Timestamp: int64(time.Hour)},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var got []motion.Reading
	err = (&Replay{Store: store, SessionID: "r2", Speed: 1}).Subscribe(ctx, collect(&got))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, got, 1)
}

func TestSyntheticSample(t *testing.T) {
	s := SyntheticSample(0)
	assert.Zero(t, s.X)
	assert.InDelta(t, 9.8, s.Z, 1e-12)
	assert.Less(t, SyntheticSample(1.7).PlanarSpeed(), 4.0)
}

func TestSyntheticEmitsGestures(t *testing.T) {
	src := &Synthetic{Interval: time.Millisecond, GestureEvery: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	var gestures []motion.Gesture
	err := src.Subscribe(ctx, func(r motion.Reading) {
		assert.True(t, r.HasSample())
		if r.Gesture != motion.GestureNone && len(gestures) < 3 {
			gestures = append(gestures, r.Gesture)
			if len(gestures) == 3 {
				cancel()
			}
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []motion.Gesture{motion.GestureNod, motion.GestureSwipe, motion.GestureCircle}, gestures)
}

func TestStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(motion.NewReading(motion.Sample{X: 1, Y: 2, Z: 3}))
		conn.WriteJSON(motion.Reading{Gesture: motion.GestureCircle})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	var got []motion.Reading
	err := NewStream(url, zaptest.NewLogger(t)).Subscribe(context.Background(), collect(&got))
	assert.ErrorIs(t, err, motion.ErrSourceClosed)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, *got[0].Y)
	assert.Equal(t, motion.GestureCircle, got[1].Gesture)
}

func TestStreamDialError(t *testing.T) {
	err := NewStream("ws://127.0.0.1:1/stream", nil).Subscribe(context.Background(), func(motion.Reading) {})
	assert.ErrorContains(t, err, "dialing")
}
