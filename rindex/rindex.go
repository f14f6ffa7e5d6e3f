// Package rindex provides the default spatial index for declutter
// collision checks, backed by an R-tree.
//
// One Index is shared by every recorder contributing to a frame. It is
// frame-scoped and single-threaded: Reset once before replay begins, then
// append and query only.
package rindex

import (
	"github.com/tidwall/rtree"

	"github.com/gogpu/mapscene/replay"
)

// Index implements replay.SpatialIndex.
type Index struct {
	tree rtree.RTreeG[replay.Box]
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Insert adds a box to the index.
func (x *Index) Insert(b replay.Box) {
	x.tree.Insert([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY}, b)
}

// Collides reports whether any indexed box overlaps b. The search stops at
// the first overlap.
func (x *Index) Collides(b replay.Box) bool {
	hit := false
	x.tree.Search([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY},
		func(_, _ [2]float64, _ replay.Box) bool {
			hit = true
			return false
		})
	return hit
}

// Len returns the number of indexed boxes.
func (x *Index) Len() int {
	return x.tree.Len()
}

// Reset clears the index for the next frame.
func (x *Index) Reset() {
	x.tree = rtree.RTreeG[replay.Box]{}
}
