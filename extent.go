package mapscene

import "math"

// Extent is an axis-aligned bounding box in world coordinates.
// An empty extent has inverted bounds so that Extend operations work
// without special-casing the first point.
type Extent struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// EmptyExtent returns an empty extent (inverted bounds for union operations).
func EmptyExtent() Extent {
	return Extent{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
	}
}

// NewExtent returns the extent with the given bounds.
func NewExtent(minX, minY, maxX, maxY float64) Extent {
	return Extent{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// IsEmpty returns true if the extent has no area.
func (e Extent) IsEmpty() bool {
	return e.MinX > e.MaxX || e.MinY > e.MaxY
}

// Intersects returns true if the two extents overlap (boundaries included).
func (e Extent) Intersects(other Extent) bool {
	if e.IsEmpty() || other.IsEmpty() {
		return false
	}
	return e.MinX <= other.MaxX && e.MaxX >= other.MinX &&
		e.MinY <= other.MaxY && e.MaxY >= other.MinY
}

// ContainsXY returns true if the point lies inside or on the boundary.
func (e Extent) ContainsXY(x, y float64) bool {
	return e.MinX <= x && x <= e.MaxX && e.MinY <= y && y <= e.MaxY
}

// Extend returns the smallest extent containing both e and other.
func (e Extent) Extend(other Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, other.MinX),
		MinY: math.Min(e.MinY, other.MinY),
		MaxX: math.Max(e.MaxX, other.MaxX),
		MaxY: math.Max(e.MaxY, other.MaxY),
	}
}

// ExtendXY expands the extent to include the point.
func (e Extent) ExtendXY(x, y float64) Extent {
	return Extent{
		MinX: math.Min(e.MinX, x),
		MinY: math.Min(e.MinY, y),
		MaxX: math.Max(e.MaxX, x),
		MaxY: math.Max(e.MaxY, y),
	}
}

// Buffer returns the extent expanded by d on all four sides.
func (e Extent) Buffer(d float64) Extent {
	return Extent{
		MinX: e.MinX - d,
		MinY: e.MinY - d,
		MaxX: e.MaxX + d,
		MaxY: e.MaxY + d,
	}
}

// Width returns the width of the extent, or 0 if empty.
func (e Extent) Width() float64 {
	if e.IsEmpty() {
		return 0
	}
	return e.MaxX - e.MinX
}

// Height returns the height of the extent, or 0 if empty.
func (e Extent) Height() float64 {
	if e.IsEmpty() {
		return 0
	}
	return e.MaxY - e.MinY
}

// Relationship describes how a coordinate relates to an extent.
// A coordinate is either intersecting (inside or on the boundary) or
// outside, in which case the relationship is a bitmask of the sides the
// coordinate lies beyond.
type Relationship uint8

// Relationship values. Outside values combine, e.g. RelAbove|RelLeft.
const (
	RelUnknown      Relationship = 0
	RelIntersecting Relationship = 1
	RelAbove        Relationship = 2
	RelRight        Relationship = 4
	RelBelow        Relationship = 8
	RelLeft         Relationship = 16
)

// Relationship returns the relationship of the coordinate (x, y) to the
// extent. Coordinate-buffer simplification collapses runs of vertices that
// share the same outside relationship.
func (e Extent) Relationship(x, y float64) Relationship {
	if e.ContainsXY(x, y) {
		return RelIntersecting
	}
	var rel Relationship
	if x < e.MinX {
		rel |= RelLeft
	} else if x > e.MaxX {
		rel |= RelRight
	}
	if y < e.MinY {
		rel |= RelBelow
	} else if y > e.MaxY {
		rel |= RelAbove
	}
	return rel
}
