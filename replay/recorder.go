package replay

import (
	"github.com/gogpu/mapscene"
)

// defaultHitFill paints hit-detection geometry. The hit stream always fills
// with an opaque color so feature interiors are hit-testable regardless of
// their visual style.
var defaultHitFill = &FillState{Paint: mapscene.RGBA(0, 0, 0, 255)}

// Recorder builds two parallel instruction streams, render and
// hit-detection, as geometries are submitted, then replays either stream any
// number of times. A recorder goes through two phases: a build phase, during
// which Draw* calls append instructions, and a replay phase entered by
// Finish, after which the streams and the coordinate buffer are immutable.
//
// A recorder is single-threaded. Multiple recorders may share a declutter
// index and a label provider across goroutines; everything else is owned by
// one recorder.
type Recorder struct {
	coords          CoordBuffer
	instructions    []Instruction
	hitInstructions []Instruction

	maxExtent  mapscene.Extent
	resolution float64
	pixelRatio float64
	overlaps   bool

	index         SpatialIndex
	labelProvider LabelProvider
	labelCapacity int
	labels        *labelCache
	layout        LayoutFunc

	// Styles to use for subsequent Draw* calls.
	fillStyle   *FillState
	strokeStyle *StrokeState
	imageStyle  *ImageOptions
	textStyle   *TextOptions

	// Shadow copies of the styles last emitted into the render stream, for
	// change detection. The hit stream carries its styles inside each
	// geometry bracket instead, so reversal cannot detach them.
	appliedFill   *FillState
	appliedStroke *StrokeState

	// Widest stroke seen so far; growing it invalidates the buffered
	// extent, which is then recomputed on next use.
	maxLineWidth   float64
	bufferedExtent *mapscene.Extent

	// Open geometry bracket positions for jump-target backpatching.
	openBegin    int
	openHitBegin int

	finished bool

	// Replay state, see interpreter.go.
	pixelCoords    []float64
	renderedTrans  mapscene.Transform
	hasRendered    bool
	recomputations int
	customScratch  map[int]any
}

// NewRecorder returns a recorder for one render batch. maxExtent is the
// world extent the batch covers; coordinate simplification happens against
// this extent buffered by half the widest stroke. resolution is the world
// size of one pixel.
func NewRecorder(maxExtent mapscene.Extent, resolution float64, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		maxExtent:  maxExtent,
		resolution: resolution,
		pixelRatio: 1,
		openBegin:  -1,
	}
	r.openHitBegin = -1
	for _, opt := range opts {
		opt(r)
	}
	if r.labelProvider != nil {
		r.labels = newLabelCache(r.labelProvider, r.labelCapacity)
	}
	return r
}

// SetFillStyle sets the fill used by subsequent polygon and circle draws.
// The state is copied; nil clears the fill.
func (r *Recorder) SetFillStyle(f *FillState) {
	if f == nil {
		r.fillStyle = nil
		return
	}
	c := *f
	r.fillStyle = &c
}

// SetStrokeStyle sets the stroke used by subsequent line, polygon and
// circle draws. The state is copied; nil clears the stroke. A stroke wider
// than any seen before invalidates the buffered simplification extent.
func (r *Recorder) SetStrokeStyle(s *StrokeState) {
	if s == nil {
		r.strokeStyle = nil
		return
	}
	r.strokeStyle = s.clone()
	if s.Width > r.maxLineWidth {
		r.maxLineWidth = s.Width
		r.bufferedExtent = nil
	}
}

// SetImageStyle sets the image placement options used by subsequent point
// draws. The options are copied per draw; nil clears the style.
func (r *Recorder) SetImageStyle(o *ImageOptions) {
	r.imageStyle = o
}

// SetTextStyle sets the text options used by subsequent text draws. The
// options are copied per draw; nil clears the style.
func (r *Recorder) SetTextStyle(o *TextOptions) {
	r.textStyle = o
}

// bufferedMaxExtent returns the simplification extent: maxExtent buffered
// by half the widest stroke (plus one pixel), lazily recomputed after a
// stroke-width increase.
func (r *Recorder) bufferedMaxExtent() mapscene.Extent {
	if r.bufferedExtent == nil {
		e := r.maxExtent
		if r.maxLineWidth > 0 {
			e = e.Buffer(r.resolution * (r.maxLineWidth + 1) / 2)
		}
		r.bufferedExtent = &e
	}
	return *r.bufferedExtent
}

// beginGeometry opens a feature bracket on both streams. The jump target is
// backpatched by endGeometry.
func (r *Recorder) beginGeometry(f mapscene.Feature) {
	r.openBegin = len(r.instructions)
	r.instructions = append(r.instructions, Instruction{Op: OpBeginGeometry, Feature: f})
	r.openHitBegin = len(r.hitInstructions)
	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpBeginGeometry, Feature: f})
}

// endGeometry closes the open bracket on both streams and backpatches each
// BeginGeometry's jump target to one past its EndGeometry.
func (r *Recorder) endGeometry(f mapscene.Feature) {
	r.instructions = append(r.instructions, Instruction{Op: OpEndGeometry, Feature: f})
	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpEndGeometry, Feature: f})
	r.instructions[r.openBegin].JumpTarget = len(r.instructions)
	r.hitInstructions[r.openHitBegin].JumpTarget = len(r.hitInstructions)
	r.openBegin = -1
	r.openHitBegin = -1
}

// updateFillStyle emits a SetFillStyle instruction into the render stream
// only when the current fill differs from the one last emitted.
func (r *Recorder) updateFillStyle() {
	if r.fillStyle == nil || r.fillStyle.Equal(r.appliedFill) {
		return
	}
	r.instructions = append(r.instructions, Instruction{Op: OpSetFillStyle, Fill: r.fillStyle})
	r.appliedFill = r.fillStyle
}

// updateStrokeStyle emits a SetStrokeStyle instruction into the render
// stream only when the current stroke differs from the one last emitted.
func (r *Recorder) updateStrokeStyle() {
	if r.strokeStyle == nil || r.strokeStyle.Equal(r.appliedStroke) {
		return
	}
	r.instructions = append(r.instructions, Instruction{Op: OpSetStrokeStyle, Stroke: r.strokeStyle})
	r.appliedStroke = r.strokeStyle
}

// appendPoints copies a coordinate run into the buffer without
// simplification and returns the new end index. Point placements and text
// paths need every vertex.
func (r *Recorder) appendPoints(flat []float64, offset, end, stride int) int {
	n := r.coords.Len()
	for i := offset; i+1 < end; i += stride {
		n = r.coords.Push(flat[i], flat[i+1])
	}
	return n
}

// DrawPoint records an image placement at each point of the geometry using
// the current image style. Without an image style the call is a no-op.
func (r *Recorder) DrawPoint(g mapscene.Geometry, f mapscene.Feature) {
	if r.imageStyle == nil || r.imageStyle.Image == nil {
		return
	}
	flat := g.FlatCoordinates()
	if len(flat) < 2 {
		return
	}
	start := r.coords.Len()
	end := r.appendPoints(flat, 0, len(flat), g.Stride())

	img := *r.imageStyle
	in := Instruction{Op: OpDrawImage, Start: start, End: end, Image: &img}
	r.beginGeometry(f)
	r.instructions = append(r.instructions, in)
	r.hitInstructions = append(r.hitInstructions, in)
	r.endGeometry(f)
}

// DrawMultiPoint records an image placement at each point of a multi-point
// geometry.
func (r *Recorder) DrawMultiPoint(g mapscene.Geometry, f mapscene.Feature) {
	r.DrawPoint(g, f)
}

// DrawLineString records a stroked polyline. Without a stroke style, or
// when simplification leaves no vertices, the call is a no-op.
func (r *Recorder) DrawLineString(g mapscene.Geometry, f mapscene.Feature) {
	if r.strokeStyle == nil {
		return
	}
	flat := g.FlatCoordinates()
	ext := r.bufferedMaxExtent()
	start := r.coords.Len()
	end := r.coords.Append(flat, 0, len(flat), g.Stride(), false, false, ext)
	if end <= start {
		return
	}

	r.updateStrokeStyle()
	r.beginGeometry(f)
	r.hitInstructions = append(r.hitInstructions,
		Instruction{Op: OpSetStrokeStyle, Stroke: r.strokeStyle},
		Instruction{Op: OpBeginPath})
	r.instructions = append(r.instructions, Instruction{Op: OpBeginPath})
	move := Instruction{Op: OpMoveLineTo, Start: start, End: end}
	stroke := Instruction{Op: OpStroke}
	r.instructions = append(r.instructions, move, stroke)
	r.hitInstructions = append(r.hitInstructions, move, stroke)
	r.endGeometry(f)
}

// DrawMultiLineString records all sub-lines as one path stroked once.
func (r *Recorder) DrawMultiLineString(g mapscene.Geometry, f mapscene.Feature) {
	if r.strokeStyle == nil {
		return
	}
	flat := g.FlatCoordinates()
	stride := g.Stride()
	ext := r.bufferedMaxExtent()

	var runs []Instruction
	offset := 0
	for _, e := range g.Ends() {
		start := r.coords.Len()
		end := r.coords.Append(flat, offset, e, stride, false, false, ext)
		if end > start {
			runs = append(runs, Instruction{Op: OpMoveLineTo, Start: start, End: end})
		}
		offset = e
	}
	if len(runs) == 0 {
		return
	}

	r.updateStrokeStyle()
	r.beginGeometry(f)
	r.hitInstructions = append(r.hitInstructions,
		Instruction{Op: OpSetStrokeStyle, Stroke: r.strokeStyle},
		Instruction{Op: OpBeginPath})
	r.instructions = append(r.instructions, Instruction{Op: OpBeginPath})
	r.instructions = append(r.instructions, runs...)
	r.hitInstructions = append(r.hitInstructions, runs...)
	stroke := Instruction{Op: OpStroke}
	r.instructions = append(r.instructions, stroke)
	r.hitInstructions = append(r.hitInstructions, stroke)
	r.endGeometry(f)
}

// orientedFlat prefers orientation-normalized coordinates for polygonal
// kinds so the non-zero winding rule fills holes correctly.
func orientedFlat(g mapscene.Geometry) []float64 {
	if og, ok := g.(mapscene.OrientedGeometry); ok {
		return og.OrientedFlatCoordinates()
	}
	return g.FlatCoordinates()
}

// appendRings buffers the rings bounded by ends, returning one MoveLineTo
// instruction per surviving ring. When the geometry will not be stroked,
// the duplicated closing vertex of each ring is skipped; ClosePath closes
// the path instead.
func (r *Recorder) appendRings(flat []float64, offset int, ends []int, stride int, stroked bool, ext mapscene.Extent) ([]Instruction, int) {
	var rings []Instruction
	for _, e := range ends {
		start := r.coords.Len()
		end := r.coords.Append(flat, offset, e, stride, true, !stroked, ext)
		if end > start {
			rings = append(rings, Instruction{Op: OpMoveLineTo, Start: start, End: end})
		}
		offset = e
	}
	return rings, offset
}

// emitRings appends BeginPath plus each ring's MoveLineTo/ClosePath pair to
// a stream.
func emitRings(stream []Instruction, rings []Instruction) []Instruction {
	stream = append(stream, Instruction{Op: OpBeginPath})
	for _, ring := range rings {
		stream = append(stream, ring, Instruction{Op: OpClosePath})
	}
	return stream
}

// DrawPolygon records a filled (and optionally stroked) ring set. The hit
// stream always receives a default fill so polygon interiors stay
// hit-testable whatever the visual style.
func (r *Recorder) DrawPolygon(g mapscene.Geometry, f mapscene.Feature) {
	hasFill := r.fillStyle != nil
	hasStroke := r.strokeStyle != nil
	if !hasFill && !hasStroke {
		return
	}
	flat := orientedFlat(g)
	ext := r.bufferedMaxExtent()
	rings, _ := r.appendRings(flat, 0, g.Ends(), g.Stride(), hasStroke, ext)
	if len(rings) == 0 {
		return
	}

	if hasFill {
		r.updateFillStyle()
	}
	if hasStroke {
		r.updateStrokeStyle()
	}
	r.beginGeometry(f)

	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpSetFillStyle, Fill: defaultHitFill})
	if hasStroke {
		r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpSetStrokeStyle, Stroke: r.strokeStyle})
	}
	r.instructions = emitRings(r.instructions, rings)
	r.hitInstructions = emitRings(r.hitInstructions, rings)

	if hasFill {
		r.instructions = append(r.instructions, Instruction{Op: OpFill})
	}
	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpFill})
	if hasStroke {
		stroke := Instruction{Op: OpStroke}
		r.instructions = append(r.instructions, stroke)
		r.hitInstructions = append(r.hitInstructions, stroke)
	}
	r.endGeometry(f)
}

// DrawMultiPolygon records all member polygons as one path painted once.
func (r *Recorder) DrawMultiPolygon(g mapscene.Geometry, f mapscene.Feature) {
	mg, ok := g.(mapscene.MultiGeometry)
	if !ok {
		r.DrawPolygon(g, f)
		return
	}
	hasFill := r.fillStyle != nil
	hasStroke := r.strokeStyle != nil
	if !hasFill && !hasStroke {
		return
	}
	flat := orientedFlat(g)
	stride := g.Stride()
	ext := r.bufferedMaxExtent()

	var rings []Instruction
	offset := 0
	for _, ends := range mg.Endss() {
		var polyRings []Instruction
		polyRings, offset = r.appendRings(flat, offset, ends, stride, hasStroke, ext)
		rings = append(rings, polyRings...)
	}
	if len(rings) == 0 {
		return
	}

	if hasFill {
		r.updateFillStyle()
	}
	if hasStroke {
		r.updateStrokeStyle()
	}
	r.beginGeometry(f)

	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpSetFillStyle, Fill: defaultHitFill})
	if hasStroke {
		r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpSetStrokeStyle, Stroke: r.strokeStyle})
	}
	r.instructions = emitRings(r.instructions, rings)
	r.hitInstructions = emitRings(r.hitInstructions, rings)

	if hasFill {
		r.instructions = append(r.instructions, Instruction{Op: OpFill})
	}
	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpFill})
	if hasStroke {
		stroke := Instruction{Op: OpStroke}
		r.instructions = append(r.instructions, stroke)
		r.hitInstructions = append(r.hitInstructions, stroke)
	}
	r.endGeometry(f)
}

// DrawCircle records a circle from its center and a point on the
// circumference. The radius is reconstructed in pixel space at replay time
// so it scales with the view.
func (r *Recorder) DrawCircle(g mapscene.Geometry, f mapscene.Feature) {
	hasFill := r.fillStyle != nil
	hasStroke := r.strokeStyle != nil
	if !hasFill && !hasStroke {
		return
	}
	flat := g.FlatCoordinates()
	stride := g.Stride()
	if len(flat) < stride+2 {
		return
	}
	start := r.coords.Len()
	r.coords.Push(flat[0], flat[1])
	r.coords.Push(flat[stride], flat[stride+1])

	if hasFill {
		r.updateFillStyle()
	}
	if hasStroke {
		r.updateStrokeStyle()
	}
	r.beginGeometry(f)

	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpSetFillStyle, Fill: defaultHitFill})
	if hasStroke {
		r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpSetStrokeStyle, Stroke: r.strokeStyle})
	}
	circle := []Instruction{
		{Op: OpBeginPath},
		{Op: OpCircle, Start: start, End: start + 4},
	}
	r.instructions = append(r.instructions, circle...)
	r.hitInstructions = append(r.hitInstructions, circle...)

	if hasFill {
		r.instructions = append(r.instructions, Instruction{Op: OpFill})
	}
	r.hitInstructions = append(r.hitInstructions, Instruction{Op: OpFill})
	if hasStroke {
		stroke := Instruction{Op: OpStroke}
		r.instructions = append(r.instructions, stroke)
		r.hitInstructions = append(r.hitInstructions, stroke)
	}
	r.endGeometry(f)
}

// DrawText records along-path text for line kinds using the current text
// style. Every path vertex is kept so layout can follow the line exactly.
// Geometry kinds without a path are skipped.
func (r *Recorder) DrawText(g mapscene.Geometry, f mapscene.Feature) {
	if r.textStyle == nil || r.textStyle.Text == "" || r.textStyle.Measure == nil {
		return
	}
	flat := g.FlatCoordinates()
	stride := g.Stride()

	var bounds [][2]int
	switch g.Kind() {
	case mapscene.KindLineString:
		bounds = [][2]int{{0, len(flat)}}
	case mapscene.KindMultiLineString:
		offset := 0
		for _, e := range g.Ends() {
			bounds = append(bounds, [2]int{offset, e})
			offset = e
		}
	default:
		mapscene.Logger().Debug("text draw: geometry has no path", "kind", g.Kind())
		return
	}

	r.beginGeometry(f)
	for _, b := range bounds {
		start := r.coords.Len()
		end := r.appendPoints(flat, b[0], b[1], stride)
		if end <= start {
			continue
		}
		text := *r.textStyle
		in := Instruction{Op: OpDrawText, Start: start, End: end, Text: &text}
		r.instructions = append(r.instructions, in)
		r.hitInstructions = append(r.hitInstructions, in)
	}
	r.endGeometry(f)
}

// DrawCustom records a custom-rendered geometry: the coordinates are
// buffered now and re-inflated into the shape matching the geometry kind at
// replay time, when the renderer callback runs. Custom instructions go to
// the render stream only. Unsupported kinds are dropped.
func (r *Recorder) DrawCustom(g mapscene.Geometry, f mapscene.Feature, renderer CustomRenderer) {
	if g == nil || renderer == nil {
		return
	}
	flat := g.FlatCoordinates()
	stride := g.Stride()
	ext := r.bufferedMaxExtent()
	c := &CustomOptions{Geometry: g, Renderer: renderer}

	start := r.coords.Len()
	end := start
	switch g.Kind() {
	case mapscene.KindPoint:
		if len(flat) < 2 {
			return
		}
		end = r.coords.Push(flat[0], flat[1])
		c.End = end
		c.Inflate = inflatePoint

	case mapscene.KindLineString, mapscene.KindMultiPoint:
		end = r.coords.Append(flat, 0, len(flat), stride, false, false, ext)
		c.End = end
		c.Inflate = inflateLine

	case mapscene.KindPolygon, mapscene.KindMultiLineString:
		offset := 0
		for _, e := range g.Ends() {
			end = r.coords.Append(orientedFlat(g), offset, e, stride, false, false, ext)
			c.Ends = append(c.Ends, end)
			offset = e
		}
		c.Inflate = inflateRings

	case mapscene.KindMultiPolygon:
		mg, ok := g.(mapscene.MultiGeometry)
		if !ok {
			mapscene.Logger().Debug("custom draw: multi-polygon without Endss", "kind", g.Kind())
			return
		}
		oriented := orientedFlat(g)
		offset := 0
		for _, ends := range mg.Endss() {
			var bufEnds []int
			for _, e := range ends {
				end = r.coords.Append(oriented, offset, e, stride, false, false, ext)
				bufEnds = append(bufEnds, end)
				offset = e
			}
			c.Endss = append(c.Endss, bufEnds)
		}
		c.Inflate = inflatePolygons

	default:
		mapscene.Logger().Debug("custom draw: unsupported geometry kind", "kind", g.Kind())
		return
	}
	if end <= start {
		return
	}

	begin := len(r.instructions)
	r.instructions = append(r.instructions,
		Instruction{Op: OpBeginGeometry, Feature: f},
		Instruction{Op: OpCustom, Start: start, End: end, Custom: c},
		Instruction{Op: OpEndGeometry, Feature: f})
	r.instructions[begin].JumpTarget = len(r.instructions)
}

// Finish seals the recorder: the hit-detection stream is reordered for
// topmost-first testing and both streams become immutable. Finish is
// idempotent.
func (r *Recorder) Finish() {
	if r.finished {
		return
	}
	reverseHitDetection(r.hitInstructions)
	r.finished = true
}

// inflatePoint rebuilds a single position.
func inflatePoint(pix []float64, start int, _ *CustomOptions) any {
	return []float64{pix[start], pix[start+1]}
}

// inflatePairs converts a flat run into a list of positions.
func inflatePairs(pix []float64, start, end int) [][]float64 {
	out := make([][]float64, 0, (end-start)/2)
	for i := start; i+1 < end; i += 2 {
		out = append(out, []float64{pix[i], pix[i+1]})
	}
	return out
}

// inflateLine rebuilds a line string or multi-point.
func inflateLine(pix []float64, start int, c *CustomOptions) any {
	return inflatePairs(pix, start, c.End)
}

// inflateRings rebuilds a polygon's rings or a multi-line-string's lines.
func inflateRings(pix []float64, start int, c *CustomOptions) any {
	out := make([][][]float64, 0, len(c.Ends))
	for _, e := range c.Ends {
		out = append(out, inflatePairs(pix, start, e))
		start = e
	}
	return out
}

// inflatePolygons rebuilds a multi-polygon.
func inflatePolygons(pix []float64, start int, c *CustomOptions) any {
	out := make([][][][]float64, 0, len(c.Endss))
	for _, ends := range c.Endss {
		poly := make([][][]float64, 0, len(ends))
		for _, e := range ends {
			poly = append(poly, inflatePairs(pix, start, e))
			start = e
		}
		out = append(out, poly)
	}
	return out
}
