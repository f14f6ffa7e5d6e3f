package mapscene

// Paint is a paint source for fill and stroke operations: either a Solid
// color, compared by value, or a *Pattern, compared by reference. Style
// deduplication in the recorder relies on this distinction — two equal
// solid colors are one style, two pattern handles are only the same style
// if they are the same handle.
type Paint interface {
	isPaint()
}

// Solid is a constant RGBA color paint.
type Solid struct {
	R, G, B, A uint8
}

func (Solid) isPaint() {}

// RGB returns an opaque solid paint.
func RGB(r, g, b uint8) Solid {
	return Solid{R: r, G: g, B: b, A: 255}
}

// RGBA returns a solid paint with alpha.
func RGBA(r, g, b, a uint8) Solid {
	return Solid{R: r, G: g, B: b, A: a}
}

// Pattern is an opaque handle to a gradient- or image-like paint. The
// engine never inspects Source; surfaces assert it to whatever pattern
// representation they support. Patterns are identified by pointer.
type Pattern struct {
	// Source is the backend-specific pattern definition.
	Source any
}

func (*Pattern) isPaint() {}

// PaintEqual reports whether two paints are the same for the purpose of
// style-change deduplication.
func PaintEqual(a, b Paint) bool {
	if a == nil || b == nil {
		return a == b
	}
	sa, aok := a.(Solid)
	sb, bok := b.(Solid)
	if aok && bok {
		return sa == sb
	}
	// Pattern-like paints compare by handle identity.
	return a == b
}

// LineCap specifies the shape of line endpoints.
type LineCap uint8

// Line cap styles.
const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// String returns a human-readable name for the line cap.
func (c LineCap) String() string {
	switch c {
	case CapButt:
		return "butt"
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	default:
		return "unknown"
	}
}

// LineJoin specifies the shape of line joins.
type LineJoin uint8

// Line join styles.
const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// String returns a human-readable name for the line join.
func (j LineJoin) String() string {
	switch j {
	case JoinMiter:
		return "miter"
	case JoinRound:
		return "round"
	case JoinBevel:
		return "bevel"
	default:
		return "unknown"
	}
}
