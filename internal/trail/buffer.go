package trail

// Point is a trail position in viewport pixels. Points are values and
// never change once pushed.
type Point struct {
	X, Y float64
}

// Buffer is a fixed-capacity FIFO of points. Pushing onto a full buffer
// evicts the oldest point.
type Buffer struct {
	data []Point
	pos  int
	full bool
}

// NewBuffer creates a Buffer holding at most capacity points.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]Point, capacity)}
}

// Push appends p, evicting the oldest point when full.
func (b *Buffer) Push(p Point) {
	b.data[b.pos] = p
	b.pos++
	if b.pos >= len(b.data) {
		b.pos = 0
		b.full = true
	}
}

// Len returns the number of points held.
func (b *Buffer) Len() int {
	if b.full {
		return len(b.data)
	}
	return b.pos
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Points returns the contents oldest first.
func (b *Buffer) Points() []Point {
	out := make([]Point, b.Len())
	if b.full {
		n := copy(out, b.data[b.pos:])
		copy(out[n:], b.data[:b.pos])
	} else {
		copy(out, b.data[:b.pos])
	}
	return out
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.pos = 0
	b.full = false
}
