package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/motiontrail/internal/motion"
)

// ErrBadLine is returned by ParseLine for input that is neither CSV nor a
// JSON reading.
var ErrBadLine = errors.New("source: unparseable line")

// OpenFunc opens a serial port. Tests replace it with an in-memory reader.
type OpenFunc func(port string, mode *serial.Mode) (io.ReadCloser, error)

// OpenPort opens a real serial port.
func OpenPort(port string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(port, mode)
}

// Serial reads newline-delimited readings from a microcontroller. Lines
// are either "x,y,z" with an optional fourth gesture field, or a JSON
// reading. Unparseable lines are logged and skipped.
type Serial struct {
	Port string
	Baud int
	Open OpenFunc
	Log  *zap.Logger
}

// NewSerial returns a Serial on port at baud, 8N1.
func NewSerial(port string, baud int, log *zap.Logger) *Serial {
	return &Serial{Port: port, Baud: baud, Open: OpenPort, Log: log}
}

// Subscribe implements motion.Source. It returns motion.ErrSourceClosed
// when the port reaches EOF.
func (s *Serial) Subscribe(ctx context.Context, h motion.Handler) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	open := s.Open
	if open == nil {
		open = OpenPort
	}
	baud := s.Baud
	if baud <= 0 {
		baud = 115200
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := open(s.Port, mode)
	if err != nil {
		return fmt.Errorf("opening serial port %s: %w", s.Port, err)
	}
	defer port.Close()
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer stop()

	log.Info("serial port open", zap.String("port", s.Port), zap.Int("baud", baud))

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, err := ParseLine(line)
		if err != nil {
			log.Warn("skipping serial line", zap.String("line", line), zap.Error(err))
			continue
		}
		h(r)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading serial port %s: %w", s.Port, err)
	}
	return motion.ErrSourceClosed
}

// ParseLine decodes one serial line.
func ParseLine(line string) (motion.Reading, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		var r motion.Reading
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return motion.Reading{}, fmt.Errorf("%w: %v", ErrBadLine, err)
		}
		if err := r.Validate(); err != nil {
			return motion.Reading{}, fmt.Errorf("%w: %v", ErrBadLine, err)
		}
		return r, nil
	}

	fields := strings.Split(line, ",")
	if len(fields) != 3 && len(fields) != 4 {
		return motion.Reading{}, fmt.Errorf("%w: want 3 or 4 fields, got %d", ErrBadLine, len(fields))
	}
	var axes [3]float64
	for i := range axes {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return motion.Reading{}, fmt.Errorf("%w: field %d: %v", ErrBadLine, i+1, err)
		}
		axes[i] = v
	}
	r := motion.NewReading(motion.Sample{X: axes[0], Y: axes[1], Z: axes[2]})
	if err := r.Validate(); err != nil {
		return motion.Reading{}, fmt.Errorf("%w: %v", ErrBadLine, err)
	}
	if len(fields) == 4 {
		r.Gesture = motion.ParseGesture(strings.TrimSpace(fields[3]))
	}
	return r, nil
}
