package raster

import (
	"math"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/replay"
)

// Default when the stroke state carries no miter limit, matching the canvas
// default.
const defaultMiterLimit = 10

// expandStroke converts one stroked polyline into fill outlines: a quad per
// segment, a join wedge per interior vertex and caps on open ends. All
// pieces share one winding direction so overlapping coverage clamps instead
// of cancelling.
func expandStroke(pts []float64, closed bool, st *replay.StrokeState) []subpath {
	pts = dedupePoints(pts)
	if closed && len(pts) >= 6 &&
		pts[0] == pts[len(pts)-2] && pts[1] == pts[len(pts)-1] {
		// The wrap segment is implied.
		pts = pts[:len(pts)-2]
	}
	e := &strokeExpander{
		half:       st.Width / 2,
		lineCap:    st.LineCap,
		lineJoin:   st.LineJoin,
		miterLimit: st.MiterLimit,
	}
	if e.miterLimit <= 0 {
		e.miterLimit = defaultMiterLimit
	}

	n := len(pts) / 2
	if n < 2 {
		if n == 1 && e.lineCap == mapscene.CapRound {
			e.addDisc(pts[0], pts[1])
		}
		return e.out
	}

	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		j := (i + 1) % n
		e.addSegment(pts[2*i], pts[2*i+1], pts[2*j], pts[2*j+1])
	}
	for i := 0; i < n; i++ {
		if !closed && (i == 0 || i == n-1) {
			continue
		}
		prev := (i - 1 + n) % n
		next := (i + 1) % n
		e.addJoin(pts[2*i], pts[2*i+1],
			pts[2*prev], pts[2*prev+1],
			pts[2*next], pts[2*next+1])
	}
	if !closed {
		e.addCap(pts[0], pts[1], pts[2], pts[3])
		e.addCap(pts[2*(n-1)], pts[2*(n-1)+1], pts[2*(n-2)], pts[2*(n-2)+1])
	}
	return e.out
}

type strokeExpander struct {
	half       float64
	lineCap    mapscene.LineCap
	lineJoin   mapscene.LineJoin
	miterLimit float64
	out        []subpath
}

// emit appends a closed outline piece, reversing it if its winding differs
// from the segment quads.
func (e *strokeExpander) emit(poly []float64) {
	if len(poly) < 6 {
		return
	}
	if shoelace(poly) > 0 {
		reversePoints(poly)
	}
	e.out = append(e.out, subpath{pts: poly, closed: true})
}

func (e *strokeExpander) addSegment(x0, y0, x1, y1 float64) {
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*e.half, dx/l*e.half
	e.emit([]float64{
		x0 + nx, y0 + ny,
		x1 + nx, y1 + ny,
		x1 - nx, y1 - ny,
		x0 - nx, y0 - ny,
	})
}

func (e *strokeExpander) addJoin(px, py, prevX, prevY, nextX, nextY float64) {
	d0x, d0y, ok0 := normalize(px-prevX, py-prevY)
	d1x, d1y, ok1 := normalize(nextX-px, nextY-py)
	if !ok0 || !ok1 {
		return
	}
	cross := d0x*d1y - d0y*d1x
	dot := d0x*d1x + d0y*d1y
	if math.Abs(cross) < 1e-9 && dot > 0 {
		return
	}

	// Outer side of the corner.
	sign := 1.0
	if cross > 0 {
		sign = -1
	}
	n0x, n0y := -d0y*e.half*sign, d0x*e.half*sign
	n1x, n1y := -d1y*e.half*sign, d1x*e.half*sign
	ax, ay := px+n0x, py+n0y
	bx, by := px+n1x, py+n1y

	switch e.lineJoin {
	case mapscene.JoinRound:
		poly := []float64{px, py}
		a0 := math.Atan2(n0y, n0x)
		sweep := sign * math.Atan2(math.Abs(cross), dot)
		poly = appendArcPoints(poly, px, py, e.half, a0, a0+sweep)
		e.emit(poly)
	case mapscene.JoinMiter:
		// Ratio of miter length to half width; past the limit the join
		// falls back to a bevel.
		ratio := math.Sqrt(2 / (1 + dot))
		if ratio <= e.miterLimit {
			mx, my, ok := normalize(n0x+n1x, n0y+n1y)
			if ok {
				e.emit([]float64{
					px, py,
					ax, ay,
					px + mx*e.half*ratio, py + my*e.half*ratio,
					bx, by,
				})
				return
			}
		}
		e.emit([]float64{px, py, ax, ay, bx, by})
	default:
		e.emit([]float64{px, py, ax, ay, bx, by})
	}
}

// addCap caps the endpoint (x, y) of the open segment arriving from
// (fromX, fromY).
func (e *strokeExpander) addCap(x, y, fromX, fromY float64) {
	dx, dy, ok := normalize(x-fromX, y-fromY)
	if !ok {
		return
	}
	nx, ny := -dy*e.half, dx*e.half
	switch e.lineCap {
	case mapscene.CapSquare:
		ex, ey := dx*e.half, dy*e.half
		e.emit([]float64{
			x + nx, y + ny,
			x + nx + ex, y + ny + ey,
			x - nx + ex, y - ny + ey,
			x - nx, y - ny,
		})
	case mapscene.CapRound:
		a0 := math.Atan2(ny, nx)
		poly := appendArcPoints(nil, x, y, e.half, a0, a0-math.Pi)
		e.emit(poly)
	}
}

func (e *strokeExpander) addDisc(x, y float64) {
	poly := appendArcPoints(nil, x, y, e.half, 0, 2*math.Pi)
	e.emit(poly)
}

// appendArcPoints samples an arc around (cx, cy) into pts, endpoints
// included.
func appendArcPoints(pts []float64, cx, cy, r, a0, a1 float64) []float64 {
	step := 2 * math.Acos(math.Max(-1, 1-arcTolerance/r))
	if step <= 0 || math.IsNaN(step) {
		step = math.Pi / 16
	}
	n := int(math.Ceil(math.Abs(a1-a0) / step))
	if n < 2 {
		n = 2
	}
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		pts = append(pts, cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	return pts
}

func dedupePoints(pts []float64) []float64 {
	out := pts[:0:0]
	for i := 0; i < len(pts); i += 2 {
		if len(out) > 0 && pts[i] == out[len(out)-2] && pts[i+1] == out[len(out)-1] {
			continue
		}
		out = append(out, pts[i], pts[i+1])
	}
	return out
}

func normalize(x, y float64) (nx, ny float64, ok bool) {
	l := math.Hypot(x, y)
	if l < 1e-12 {
		return 0, 0, false
	}
	return x / l, y / l, true
}

// shoelace returns twice the signed area of a closed polygon.
func shoelace(pts []float64) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i += 2 {
		j := (i + 2) % n
		sum += pts[i]*pts[j+1] - pts[j]*pts[i+1]
	}
	return sum
}

func reversePoints(pts []float64) {
	for i, j := 0, len(pts)-2; i < j; i, j = i+2, j-2 {
		pts[i], pts[j] = pts[j], pts[i]
		pts[i+1], pts[j+1] = pts[j+1], pts[i+1]
	}
}
