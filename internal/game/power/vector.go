package power

import "fmt"

// Side names one edge of a card.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// Sides lists the four sides in the fixed combat order.
var Sides = []Side{SideTop, SideRight, SideBottom, SideLeft}

var sideNames = map[Side]string{
	SideTop:    "TOP",
	SideRight:  "RIGHT",
	SideBottom: "BOTTOM",
	SideLeft:   "LEFT",
}

func (s Side) String() string {
	if name, ok := sideNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SIDE_%d", int(s))
}

// Opposite returns the side that faces s on a neighbouring card.
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideLeft:
		return SideRight
	default:
		return SideLeft
	}
}

// Vector holds the four side values of a card. It is also used as a partial
// delta where a zero field means "no change on that side".
type Vector struct {
	Top    int `json:"top" yaml:"top" toml:"top"`
	Right  int `json:"right" yaml:"right" toml:"right"`
	Bottom int `json:"bottom" yaml:"bottom" toml:"bottom"`
	Left   int `json:"left" yaml:"left" toml:"left"`
}

// Uniform returns a vector with the same value on every side.
func Uniform(n int) Vector {
	return Vector{Top: n, Right: n, Bottom: n, Left: n}
}

// Get returns the value on the given side.
func (v Vector) Get(s Side) int {
	switch s {
	case SideTop:
		return v.Top
	case SideRight:
		return v.Right
	case SideBottom:
		return v.Bottom
	default:
		return v.Left
	}
}

// With returns a copy of v with side s set to n.
func (v Vector) With(s Side, n int) Vector {
	switch s {
	case SideTop:
		v.Top = n
	case SideRight:
		v.Right = n
	case SideBottom:
		v.Bottom = n
	default:
		v.Left = n
	}
	return v
}

// Add returns the side-wise sum.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Top:    v.Top + o.Top,
		Right:  v.Right + o.Right,
		Bottom: v.Bottom + o.Bottom,
		Left:   v.Left + o.Left,
	}
}

// Sub returns the side-wise difference.
func (v Vector) Sub(o Vector) Vector {
	return v.Add(o.Neg())
}

// Neg flips the sign of every side.
func (v Vector) Neg() Vector {
	return Vector{Top: -v.Top, Right: -v.Right, Bottom: -v.Bottom, Left: -v.Left}
}

// Floor clamps every side at zero. This is the value shown to players and
// used in combat comparisons.
func (v Vector) Floor() Vector {
	return Vector{
		Top:    max(v.Top, 0),
		Right:  max(v.Right, 0),
		Bottom: max(v.Bottom, 0),
		Left:   max(v.Left, 0),
	}
}

// Total sums the four sides.
func (v Vector) Total() int {
	return v.Top + v.Right + v.Bottom + v.Left
}

// Peak returns the strongest side.
func (v Vector) Peak() int {
	return max(v.Top, v.Right, v.Bottom, v.Left)
}

// IsZero reports whether every side is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

func (v Vector) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", v.Top, v.Right, v.Bottom, v.Left)
}
