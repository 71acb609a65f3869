package motion

import "strings"

// Gesture is a discrete recognized motion pattern.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureNod
	GestureSwipe
	GestureCircle
)

var gestureNames = [...]string{
	GestureNone:   "none",
	GestureNod:    "nod",
	GestureSwipe:  "swipe",
	GestureCircle: "circle",
}

func (g Gesture) String() string {
	if g < 0 || int(g) >= len(gestureNames) {
		return gestureNames[GestureNone]
	}
	return gestureNames[g]
}

// ParseGesture maps a gesture name to its value. Matching ignores case and
// surrounding space; anything unrecognized is GestureNone.
func ParseGesture(s string) Gesture {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range gestureNames {
		if name == s {
			return Gesture(i)
		}
	}
	return GestureNone
}

// Valid reports whether g is one of the enumerated gestures.
func (g Gesture) Valid() bool {
	return g >= GestureNone && int(g) < len(gestureNames)
}

func (g Gesture) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText never fails; unknown names decode to GestureNone.
func (g *Gesture) UnmarshalText(b []byte) error {
	*g = ParseGesture(string(b))
	return nil
}
