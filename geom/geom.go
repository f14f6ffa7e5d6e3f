// Package geom provides concrete flat-coordinate geometries implementing
// the mapscene Geometry contract.
//
// Coordinates are stored flattened, stride 2, with sub-path boundaries as
// end offsets into the flat slice. This matches what the replay recorder
// consumes directly, so recording never re-walks nested structures.
package geom

import (
	"math"

	"github.com/gogpu/mapscene"
)

// flatGeometry is the shared storage of all geometry kinds.
type flatGeometry struct {
	flat   []float64
	ends   []int
	extent *mapscene.Extent
}

func (g *flatGeometry) FlatCoordinates() []float64 { return g.flat }
func (g *flatGeometry) Stride() int                { return 2 }
func (g *flatGeometry) Ends() []int                { return g.ends }

// Extent returns the bounding extent, computed on first use.
func (g *flatGeometry) Extent() mapscene.Extent {
	if g.extent == nil {
		e := extentOf(g.flat)
		g.extent = &e
	}
	return *g.extent
}

func extentOf(flat []float64) mapscene.Extent {
	e := mapscene.EmptyExtent()
	for i := 0; i+1 < len(flat); i += 2 {
		e = e.ExtendXY(flat[i], flat[i+1])
	}
	return e
}

func flatten(coords [][]float64, flat []float64) []float64 {
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}

// Point is a single position.
type Point struct {
	flatGeometry
}

// NewPoint returns a point geometry.
func NewPoint(x, y float64) *Point {
	return &Point{flatGeometry{flat: []float64{x, y}, ends: []int{2}}}
}

func (*Point) Kind() mapscene.GeometryKind { return mapscene.KindPoint }

// X returns the point's x coordinate.
func (p *Point) X() float64 { return p.flat[0] }

// Y returns the point's y coordinate.
func (p *Point) Y() float64 { return p.flat[1] }

// MultiPoint is a set of positions.
type MultiPoint struct {
	flatGeometry
}

// NewMultiPoint returns a multi-point from a list of positions.
func NewMultiPoint(coords [][]float64) *MultiPoint {
	flat := flatten(coords, make([]float64, 0, 2*len(coords)))
	return &MultiPoint{flatGeometry{flat: flat, ends: []int{len(flat)}}}
}

func (*MultiPoint) Kind() mapscene.GeometryKind { return mapscene.KindMultiPoint }

// LineString is a connected sequence of positions.
type LineString struct {
	flatGeometry
}

// NewLineString returns a line string from a list of positions.
func NewLineString(coords [][]float64) *LineString {
	flat := flatten(coords, make([]float64, 0, 2*len(coords)))
	return &LineString{flatGeometry{flat: flat, ends: []int{len(flat)}}}
}

func (*LineString) Kind() mapscene.GeometryKind { return mapscene.KindLineString }

// MultiLineString is a set of line strings.
type MultiLineString struct {
	flatGeometry
}

// NewMultiLineString returns a multi-line-string from lists of positions.
func NewMultiLineString(lines [][][]float64) *MultiLineString {
	var flat []float64
	ends := make([]int, 0, len(lines))
	for _, line := range lines {
		flat = flatten(line, flat)
		ends = append(ends, len(flat))
	}
	return &MultiLineString{flatGeometry{flat: flat, ends: ends}}
}

func (*MultiLineString) Kind() mapscene.GeometryKind { return mapscene.KindMultiLineString }

// Polygon is an exterior ring with optional interior rings (holes).
type Polygon struct {
	flatGeometry
	oriented []float64
}

// NewPolygon returns a polygon from its rings. The first ring is the
// exterior; the rest are holes. Rings should repeat their first position as
// their last.
func NewPolygon(rings [][][]float64) *Polygon {
	var flat []float64
	ends := make([]int, 0, len(rings))
	for _, ring := range rings {
		flat = flatten(ring, flat)
		ends = append(ends, len(flat))
	}
	return &Polygon{flatGeometry: flatGeometry{flat: flat, ends: ends}}
}

func (*Polygon) Kind() mapscene.GeometryKind { return mapscene.KindPolygon }

// OrientedFlatCoordinates returns the coordinates with the exterior ring
// counter-clockwise and holes clockwise, as the non-zero winding rule
// expects. The oriented copy is computed on first use.
func (p *Polygon) OrientedFlatCoordinates() []float64 {
	if p.oriented == nil {
		p.oriented = orientRings(p.flat, 0, p.ends)
	}
	return p.oriented
}

// MultiPolygon is a set of polygons.
type MultiPolygon struct {
	flatGeometry
	endss    [][]int
	oriented []float64
}

// NewMultiPolygon returns a multi-polygon from nested polygon rings.
func NewMultiPolygon(polygons [][][][]float64) *MultiPolygon {
	var flat []float64
	var ends []int
	endss := make([][]int, 0, len(polygons))
	for _, rings := range polygons {
		var polyEnds []int
		for _, ring := range rings {
			flat = flatten(ring, flat)
			polyEnds = append(polyEnds, len(flat))
			ends = append(ends, len(flat))
		}
		endss = append(endss, polyEnds)
	}
	return &MultiPolygon{flatGeometry: flatGeometry{flat: flat, ends: ends}, endss: endss}
}

func (*MultiPolygon) Kind() mapscene.GeometryKind { return mapscene.KindMultiPolygon }

// Endss returns the per-polygon ring end offsets.
func (p *MultiPolygon) Endss() [][]int { return p.endss }

// OrientedFlatCoordinates orients every member polygon's rings.
func (p *MultiPolygon) OrientedFlatCoordinates() []float64 {
	if p.oriented == nil {
		oriented := append([]float64(nil), p.flat...)
		offset := 0
		for _, ends := range p.endss {
			orientRingsInPlace(oriented, offset, ends)
			if len(ends) > 0 {
				offset = ends[len(ends)-1]
			}
		}
		p.oriented = oriented
	}
	return p.oriented
}

// Circle is a center with a radius, recorded as the center plus one point
// on the circumference so the radius scales with the view transform.
type Circle struct {
	flatGeometry
	radius float64
}

// NewCircle returns a circle geometry.
func NewCircle(cx, cy, radius float64) *Circle {
	c := &Circle{
		flatGeometry: flatGeometry{flat: []float64{cx, cy, cx + radius, cy}, ends: []int{4}},
		radius:       radius,
	}
	e := mapscene.NewExtent(cx-radius, cy-radius, cx+radius, cy+radius)
	c.extent = &e
	return c
}

func (*Circle) Kind() mapscene.GeometryKind { return mapscene.KindCircle }

// Center returns the circle's center.
func (c *Circle) Center() (float64, float64) { return c.flat[0], c.flat[1] }

// Radius returns the circle's radius.
func (c *Circle) Radius() float64 { return c.radius }

// ringArea returns the signed shoelace area of flat[offset:end).
// Positive means counter-clockwise in a y-up frame.
func ringArea(flat []float64, offset, end int) float64 {
	var twice float64
	x1, y1 := flat[end-2], flat[end-1]
	for i := offset; i+1 < end; i += 2 {
		x2, y2 := flat[i], flat[i+1]
		twice += x1*y2 - x2*y1
		x1, y1 = x2, y2
	}
	return twice / 2
}

// orientRings returns a copy of the ring set with the first ring
// counter-clockwise and the rest clockwise.
func orientRings(flat []float64, offset int, ends []int) []float64 {
	oriented := append([]float64(nil), flat...)
	orientRingsInPlace(oriented, offset, ends)
	return oriented
}

func orientRingsInPlace(flat []float64, offset int, ends []int) {
	for i, end := range ends {
		exterior := i == 0
		ccw := ringArea(flat, offset, end) > 0
		if ccw != exterior {
			reverseRing(flat, offset, end)
		}
		offset = end
	}
}

// reverseRing reverses the vertex order of flat[offset:end) in place.
func reverseRing(flat []float64, offset, end int) {
	for i, j := offset, end-2; i < j; i, j = i+2, j-2 {
		flat[i], flat[j] = flat[j], flat[i]
		flat[i+1], flat[j+1] = flat[j+1], flat[i+1]
	}
}

// Length returns the sum of segment lengths of a line string.
func Length(line *LineString) float64 {
	var length float64
	flat := line.flat
	for i := 2; i+1 < len(flat); i += 2 {
		length += math.Hypot(flat[i]-flat[i-2], flat[i+1]-flat[i-1])
	}
	return length
}
