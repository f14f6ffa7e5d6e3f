package replay

import (
	"github.com/gogpu/mapscene"
)

// CoordBuffer is the flat, append-only store of 2D vertices shared by both
// instruction streams of a recorder. Instructions reference index ranges
// [start, end) into it; ranges are monotonically non-decreasing across a
// stream and never exceed the buffer length.
type CoordBuffer struct {
	coords []float64
}

// Len returns the current end index of the buffer.
func (b *CoordBuffer) Len() int {
	return len(b.coords)
}

// Coords exposes the buffered coordinates for replay transformation.
func (b *CoordBuffer) Coords() []float64 {
	return b.coords
}

// Push appends a single vertex without simplification and returns the new
// end index.
func (b *CoordBuffer) Push(x, y float64) int {
	b.coords = append(b.coords, x, y)
	return len(b.coords)
}

// Append copies the vertex run src[offset:end) (with the given stride)
// into the buffer, simplifying against extent, and returns the new end
// index. Callers record that index as the instruction's range boundary.
//
// Simplification tracks each vertex's relationship to the extent
// (intersecting, or an outside-side bitmask). A vertex is emitted when its
// relationship differs from its predecessor's, and always when it
// intersects the extent; in both cases a skipped predecessor is emitted
// first so crossings and sub-path starts stay geometrically anchored.
// Runs of vertices sharing one outside relationship collapse entirely.
// For closed sub-paths whose tail was skipped, and for single-vertex runs,
// the final vertex is force-emitted so degenerate or fully-clipped
// sub-paths are never left empty.
func (b *CoordBuffer) Append(src []float64, offset, end, stride int, closed, skipFirst bool, extent mapscene.Extent) int {
	if skipFirst {
		offset += stride
	}
	if offset >= end || offset+1 >= len(src) {
		return len(b.coords)
	}

	lastX, lastY := src[offset], src[offset+1]
	lastRel := extent.Relationship(lastX, lastY)
	skipped := true

	i := offset + stride
	for ; i < end; i += stride {
		x, y := src[i], src[i+1]
		rel := extent.Relationship(x, y)
		if rel != lastRel || rel == mapscene.RelIntersecting {
			if skipped {
				b.coords = append(b.coords, lastX, lastY)
			}
			b.coords = append(b.coords, x, y)
			skipped = false
		} else {
			skipped = true
		}
		lastX, lastY = x, y
		lastRel = rel
	}

	// Last coordinate of a closed ring was skipped, or the run held a
	// single vertex: force-emit so the sub-path is never left empty.
	if (closed && skipped) || i == offset+stride {
		b.coords = append(b.coords, lastX, lastY)
	}
	return len(b.coords)
}
