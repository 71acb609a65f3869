package ingestion

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// MessageType discriminates the kind of payload in the wire protocol.
// Format: [1 byte type][4 bytes length (big-endian)][payload JSON]
type MessageType byte

const (
	MsgSample  MessageType = 0x01
	MsgGesture MessageType = 0x02
	MsgBatch   MessageType = 0x03
)

func (t MessageType) String() string {
	switch t {
	case MsgSample:
		return "sample"
	case MsgGesture:
		return "gesture"
	case MsgBatch:
		return "batch"
	default:
		return fmt.Sprintf("0x%02x", byte(t))
	}
}

// MaxPayload bounds a single frame's JSON payload.
const MaxPayload = 1 << 20

// Acknowledgement bytes written after every frame.
const (
	AckOK    byte = 0x00
	AckError byte = 0x01
)

var (
	// ErrMessageTooLarge is returned for frames over MaxPayload.
	ErrMessageTooLarge = errors.New("ingestion: message too large")
	// ErrRejected is returned by Client when the daemon acks with an error.
	ErrRejected = errors.New("ingestion: message rejected")
)

// BatchMessage carries many readings in one frame.
type BatchMessage struct {
	Readings []motion.Reading `json:"readings"`
}

// WriteFrame encodes v as JSON and writes one frame.
func WriteFrame(w io.Writer, t MessageType, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", t, err)
	}
	if len(payload) > MaxPayload {
		return ErrMessageTooLarge
	}
	frame := make([]byte, 5+len(payload))
	frame[0] = byte(t)
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(payload)))
	copy(frame[5:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing %s frame: %w", t, err)
	}
	return nil
}

// ReadFrame reads one frame. A clean EOF before the type byte is returned
// as io.EOF.
func ReadFrame(r io.Reader) (MessageType, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:1]); err != nil {
		return 0, nil, err
	}
	if _, err := io.ReadFull(r, header[1:]); err != nil {
		return 0, nil, fmt.Errorf("reading message length: %w", err)
	}
	n := binary.BigEndian.Uint32(header[1:])
	if n > MaxPayload {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("reading payload: %w", err)
	}
	return MessageType(header[0]), payload, nil
}

// Network picks "unix" for socket paths and "tcp" for host:port.
func Network(addr string) string {
	if strings.HasPrefix(addr, "/") || strings.HasSuffix(addr, ".sock") {
		return "unix"
	}
	return "tcp"
}

// Client pushes readings to a daemon over the wire protocol.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Dial connects to a daemon's listen address.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout(Network(addr), addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, timeout: 5 * time.Second}
}

// Send writes one frame and waits for its acknowledgement.
func (c *Client) Send(t MessageType, v any) error {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if err := WriteFrame(c.conn, t, v); err != nil {
		return err
	}
	var ack [1]byte
	if _, err := io.ReadFull(c.conn, ack[:]); err != nil {
		return fmt.Errorf("reading ack: %w", err)
	}
	if ack[0] != AckOK {
		return ErrRejected
	}
	return nil
}

// SendReading sends r as a sample frame, or as a gesture frame when it
// carries no axes.
func (c *Client) SendReading(r motion.Reading) error {
	if r.HasSample() {
		return c.Send(MsgSample, r)
	}
	return c.Send(MsgGesture, r)
}

// SendBatch sends readings in one batch frame.
func (c *Client) SendBatch(readings []motion.Reading) error {
	return c.Send(MsgBatch, BatchMessage{Readings: readings})
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
