package replay

import (
	"fmt"

	"github.com/gogpu/mapscene"
)

// testGeometry is a minimal Geometry for recorder tests.
type testGeometry struct {
	kind  mapscene.GeometryKind
	flat  []float64
	ends  []int
	endss [][]int
}

func (g *testGeometry) Kind() mapscene.GeometryKind { return g.kind }
func (g *testGeometry) FlatCoordinates() []float64  { return g.flat }
func (g *testGeometry) Stride() int                 { return 2 }
func (g *testGeometry) Ends() []int                 { return g.ends }
func (g *testGeometry) Endss() [][]int              { return g.endss }

func (g *testGeometry) Extent() mapscene.Extent {
	e := mapscene.EmptyExtent()
	for i := 0; i+1 < len(g.flat); i += 2 {
		e = e.ExtendXY(g.flat[i], g.flat[i+1])
	}
	return e
}

func lineGeometry(flat ...float64) *testGeometry {
	return &testGeometry{kind: mapscene.KindLineString, flat: flat, ends: []int{len(flat)}}
}

func polygonGeometry(flat ...float64) *testGeometry {
	return &testGeometry{kind: mapscene.KindPolygon, flat: flat, ends: []int{len(flat)}}
}

func pointGeometry(x, y float64) *testGeometry {
	return &testGeometry{kind: mapscene.KindPoint, flat: []float64{x, y}, ends: []int{2}}
}

type testFeature struct {
	name string
	geom mapscene.Geometry
}

func (f *testFeature) Geometry() mapscene.Geometry { return f.geom }

func feature(name string, g mapscene.Geometry) *testFeature {
	return &testFeature{name: name, geom: g}
}

// callSurface records every surface call for assertions.
type callSurface struct {
	w, h   float64
	calls  []string
	images []ImagePlacement
	drawn  []Image
}

func newCallSurface() *callSurface {
	return &callSurface{w: 256, h: 256}
}

func (s *callSurface) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *callSurface) Size() (float64, float64) { return s.w, s.h }
func (s *callSurface) BeginPath()               { s.record("beginPath") }
func (s *callSurface) MoveTo(x, y float64)      { s.record("moveTo(%g,%g)", x, y) }
func (s *callSurface) LineTo(x, y float64)      { s.record("lineTo(%g,%g)", x, y) }
func (s *callSurface) ClosePath()               { s.record("closePath") }
func (s *callSurface) Fill()                    { s.record("fill") }
func (s *callSurface) Stroke()                  { s.record("stroke") }

func (s *callSurface) Arc(cx, cy, radius, startAngle, endAngle float64) {
	s.record("arc(%g,%g,%g)", cx, cy, radius)
}

func (s *callSurface) SetFillStyle(f *FillState)     { s.record("setFill") }
func (s *callSurface) SetStrokeStyle(st *StrokeState) { s.record("setStroke") }

func (s *callSurface) DrawImage(img Image, p ImagePlacement) {
	s.record("drawImage")
	s.images = append(s.images, p)
	s.drawn = append(s.drawn, img)
}

func (s *callSurface) count(call string) int {
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

// testImage is an opaque bitmap stub.
type testImage struct {
	w, h int
}

func (im *testImage) Size() (int, int) { return im.w, im.h }

// testLabels is a label provider returning fixed-size stub images.
type testLabels struct{}

func (testLabels) Label(chars, textKey, fillKey, strokeKey string) Image {
	return &testImage{w: 10 * len(chars), h: 12}
}

// testIndex is an exhaustive-scan spatial index.
type testIndex struct {
	boxes []Box
}

func (x *testIndex) Insert(b Box) {
	x.boxes = append(x.boxes, b)
}

func (x *testIndex) Collides(b Box) bool {
	for _, o := range x.boxes {
		if b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY {
			return true
		}
	}
	return false
}

func countOps(instructions []Instruction, op Op) int {
	n := 0
	for i := range instructions {
		if instructions[i].Op == op {
			n++
		}
	}
	return n
}
