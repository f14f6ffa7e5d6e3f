package replay

import (
	"math"

	"github.com/gogpu/mapscene"
)

// batchThreshold is the maximum number of deferred fill/stroke operations
// accumulated before a forced flush. Batching amortizes expensive surface
// state flushes across many small geometries; it is disabled (threshold 0)
// for hit-detection replay and for recorders whose geometries may overlap,
// where paint order must be exact.
const batchThreshold = 200

// transformedCoords returns the coordinate buffer transformed to pixel
// space. The result is cached and reused as long as the requested transform
// equals, by value, the one last applied; a transform change recomputes the
// cache in place and drops the custom-renderer scratch structures derived
// from it.
func (r *Recorder) transformedCoords(t mapscene.Transform) []float64 {
	if r.hasRendered && t == r.renderedTrans {
		return r.pixelCoords
	}
	r.pixelCoords = t.Apply(r.pixelCoords, r.coords.Coords())
	r.renderedTrans = t
	r.hasRendered = true
	r.recomputations++
	r.customScratch = make(map[int]any)
	return r.pixelCoords
}

// Recomputations returns how many times the pixel-coordinate cache has been
// rebuilt. Two replays with the same transform leave the count unchanged
// between them.
func (r *Recorder) Recomputations() int {
	return r.recomputations
}

// Replay executes the render stream against a surface. transform maps world
// coordinates to surface pixels; viewRotation is the view's rotation in
// radians, composed into placements that rotate with the view. Features in
// skip are passed over entirely.
//
// Replay may be called any number of times with different transforms.
func (r *Recorder) Replay(surface Surface, transform mapscene.Transform, viewRotation float64, skip SkipSet) {
	if !r.finished {
		mapscene.Logger().Warn("replay on unfinished recorder")
	}
	batch := batchThreshold
	if r.overlaps {
		batch = 0
	}
	i := &interp{
		rec:          r,
		surface:      surface,
		index:        r.index,
		labels:       r.labels,
		layout:       r.layout,
		viewRotation: viewRotation,
		batchSize:    batch,
	}
	i.run(r.instructions, r.transformedCoords(transform), skip)
}

// ReplayHitDetection executes the hit-detection stream. callback is invoked
// at each feature boundary, topmost feature first; its first non-nil result
// short-circuits the replay and is returned. hitExtent, when non-nil,
// culls features whose geometry extent does not intersect it.
func (r *Recorder) ReplayHitDetection(surface Surface, transform mapscene.Transform, viewRotation float64, skip SkipSet, callback FeatureCallback, hitExtent *mapscene.Extent) any {
	if !r.finished {
		mapscene.Logger().Warn("hit-detection replay on unfinished recorder")
	}
	i := &interp{
		rec:             r,
		surface:         surface,
		index:           r.index,
		labels:          r.labels,
		layout:          r.layout,
		featureCallback: callback,
		hitExtent:       hitExtent,
		viewRotation:    viewRotation,
	}
	return i.run(r.hitInstructions, r.transformedCoords(transform), skip)
}

// interp is the per-replay interpreter state. A fresh interp runs each
// replay call; everything that survives between replays (pixel coordinates,
// custom scratch) lives on the recorder.
type interp struct {
	rec     *Recorder
	surface Surface
	index   SpatialIndex
	labels  *labelCache
	layout  LayoutFunc

	featureCallback FeatureCallback
	hitExtent       *mapscene.Extent
	viewRotation    float64
	batchSize       int

	surfW, surfH float64

	// Styles last applied to the surface, used to paint label and icon
	// backgrounds and to restore state after deferred declutter draws.
	lastFill   *FillState
	lastStroke *StrokeState

	pendingFill   int
	pendingStroke int

	// Previous rounded vertex for polyline dedup within one path.
	prevX, prevY float64
}

// run is the interpreter loop shared by render and hit-detection replay.
func (i *interp) run(instructions []Instruction, pix []float64, skip SkipSet) any {
	i.surfW, i.surfH = i.surface.Size()
	var feature mapscene.Feature

	ip := 0
	for ip < len(instructions) {
		ins := &instructions[ip]
		switch ins.Op {
		case OpBeginGeometry:
			feature = ins.Feature
			if i.skipFeature(feature, skip) {
				feature = nil
				ip = ins.JumpTarget
				continue
			}

		case OpEndGeometry:
			if i.featureCallback != nil {
				if result := i.featureCallback(ins.Feature); result != nil {
					return result
				}
			}

		case OpBeginPath:
			if i.pendingFill > i.batchSize {
				i.surface.Fill()
				i.pendingFill = 0
			}
			if i.pendingStroke > i.batchSize {
				i.surface.Stroke()
				i.pendingStroke = 0
			}
			if i.pendingFill == 0 && i.pendingStroke == 0 {
				i.surface.BeginPath()
				i.prevX = math.NaN()
				i.prevY = math.NaN()
			}

		case OpMoveLineTo:
			i.moveLineTo(pix, ins.Start, ins.End)

		case OpCircle:
			d := ins.Start
			x1, y1 := pix[d], pix[d+1]
			x2, y2 := pix[d+2], pix[d+3]
			radius := math.Hypot(x2-x1, y2-y1)
			i.surface.MoveTo(x1+radius, y1)
			i.surface.Arc(x1, y1, radius, 0, 2*math.Pi)

		case OpClosePath:
			i.surface.ClosePath()

		case OpSetFillStyle:
			if i.pendingFill > 0 {
				i.surface.Fill()
				i.pendingFill = 0
			}
			i.lastFill = ins.Fill
			i.surface.SetFillStyle(ins.Fill)

		case OpSetStrokeStyle:
			if i.pendingStroke > 0 {
				i.surface.Stroke()
				i.pendingStroke = 0
			}
			i.lastStroke = ins.Stroke
			i.surface.SetStrokeStyle(ins.Stroke)

		case OpFill:
			if i.batchSize > 0 {
				i.pendingFill++
			} else {
				i.surface.Fill()
			}

		case OpStroke:
			if i.batchSize > 0 {
				i.pendingStroke++
			} else {
				i.surface.Stroke()
			}

		case OpDrawImage:
			i.execDrawImage(ins, pix, feature)

		case OpDrawText:
			i.execDrawText(ins, pix, feature)

		case OpCustom:
			i.execCustom(ip, ins, pix, feature)

		default:
			// Unknown opcode: skip and continue. Malformed streams must
			// never stall the interpreter.
		}
		ip++
	}

	if i.pendingFill > 0 {
		i.surface.Fill()
		i.pendingFill = 0
	}
	if i.pendingStroke > 0 {
		i.surface.Stroke()
		i.pendingStroke = 0
	}
	return nil
}

// skipFeature decides whether a whole feature bracket is jumped over.
func (i *interp) skipFeature(feature mapscene.Feature, skip SkipSet) bool {
	if feature == nil {
		return true
	}
	if _, ok := skip[feature]; ok {
		return true
	}
	g := feature.Geometry()
	if g == nil {
		return true
	}
	if i.hitExtent != nil && !i.hitExtent.Intersects(g.Extent()) {
		return true
	}
	return false
}

// moveLineTo emits a polyline from the pixel buffer, deduplicating
// consecutive vertices that round to the same pixel. The final vertex is
// always emitted so sub-path endpoints stay exact.
func (i *interp) moveLineTo(pix []float64, start, end int) {
	x, y := pix[start], pix[start+1]
	i.surface.MoveTo(x, y)
	i.prevX = math.Round(x)
	i.prevY = math.Round(y)
	for d := start + 2; d+1 < end; d += 2 {
		x, y = pix[d], pix[d+1]
		roundX := math.Round(x)
		roundY := math.Round(y)
		if d == end-2 || roundX != i.prevX || roundY != i.prevY {
			i.surface.LineTo(x, y)
			i.prevX = roundX
			i.prevY = roundY
		}
	}
}

// execDrawImage places the instruction's image at each point in its range,
// drawing immediately or deferring into the attached declutter group.
// Declutter is disabled during hit-detection replay: the callback needs
// every feature testable, not a collision-thinned subset.
func (i *interp) execDrawImage(ins *Instruction, pix []float64, feature mapscene.Feature) {
	o := ins.Image
	group := o.Declutter
	if i.featureCallback != nil {
		group = nil
	}
	if group != nil {
		if n := (ins.End - ins.Start) / 2; n != 1 {
			group.grow(n - 1)
		}
	}
	for d := ins.Start; d+1 < ins.End; d += 2 {
		i.drawPlacement(pix[d], pix[d+1], o, group)
	}
	i.resolveDeclutter(group, feature)
}

// drawPlacement computes the on-screen placement of one image: anchor
// offset, source clamping, optional pixel snapping and rotation about the
// anchor. Placements outside the surface are dropped (or doom their
// declutter group); visible ones draw immediately or are deferred into the
// group.
func (i *interp) drawPlacement(px, py float64, o *ImageOptions, group *DeclutterGroup) {
	anchorX := o.AnchorX * o.Scale
	anchorY := o.AnchorY * o.Scale
	x := px - anchorX
	y := py - anchorY

	w, h := o.Width, o.Height
	imgW, imgH := o.Image.Size()
	if o.OriginX+w > float64(imgW) {
		w = float64(imgW) - o.OriginX
	}
	if o.OriginY+h > float64(imgH) {
		h = float64(imgH) - o.OriginY
	}
	if o.SnapToPixel {
		x = math.Round(x)
		y = math.Round(y)
	}

	boxX := x - o.Padding[3]
	boxY := y - o.Padding[0]
	boxW := o.Padding[3] + w*o.Scale + o.Padding[1]
	boxH := o.Padding[0] + h*o.Scale + o.Padding[2]

	rotation := o.Rotation
	if o.RotateWithView {
		rotation += i.viewRotation
	}
	centerX := x + anchorX
	centerY := y + anchorY

	corners := [4][2]float64{
		{boxX, boxY},
		{boxX + boxW, boxY},
		{boxX + boxW, boxY + boxH},
		{boxX, boxY + boxH},
	}
	if rotation != 0 {
		sin, cos := math.Sincos(rotation)
		for c := range corners {
			corners[c][0], corners[c][1] = rotateAbout(corners[c][0], corners[c][1], centerX, centerY, sin, cos)
		}
	}
	box := mapscene.EmptyExtent()
	for _, c := range corners {
		box = box.ExtendXY(c[0], c[1])
	}
	visible := box.Intersects(mapscene.NewExtent(0, 0, i.surfW, i.surfH))

	var bgFill *FillState
	var bgStroke *StrokeState
	if o.BackgroundFill {
		bgFill = i.lastFill
	}
	if o.BackgroundStroke {
		bgStroke = i.lastStroke
	}
	hasBG := bgFill != nil || bgStroke != nil

	placement := ImagePlacement{
		SrcX: o.OriginX, SrcY: o.OriginY, SrcW: w, SrcH: h,
		X: x, Y: y,
		Scale:    o.Scale,
		Rotation: rotation, CenterX: centerX, CenterY: centerY,
		Opacity:     o.Opacity,
		SnapToPixel: o.SnapToPixel,
	}

	if group != nil {
		if !visible {
			group.addInvisible(box)
			return
		}
		group.add(declutterEntry{
			img:       o.Image,
			placement: placement,
			corners:   corners,
			bgFill:    bgFill,
			bgStroke:  bgStroke,
			hasBG:     hasBG,
		}, box)
		return
	}
	if !visible {
		return
	}
	if hasBG {
		i.drawPlacementBackground(corners, bgFill, bgStroke)
	}
	i.surface.DrawImage(o.Image, placement)
}

// drawPlacementBackground paints the padded box behind an image or label,
// then restores the styles the stream last applied.
func (i *interp) drawPlacementBackground(corners [4][2]float64, fill *FillState, stroke *StrokeState) {
	s := i.surface
	s.BeginPath()
	s.MoveTo(corners[0][0], corners[0][1])
	s.LineTo(corners[1][0], corners[1][1])
	s.LineTo(corners[2][0], corners[2][1])
	s.LineTo(corners[3][0], corners[3][1])
	s.ClosePath()
	if fill != nil {
		s.SetFillStyle(fill)
		s.Fill()
	}
	if stroke != nil {
		s.SetStrokeStyle(stroke)
		s.Stroke()
	}
	if fill != nil && i.lastFill != nil && i.lastFill != fill {
		s.SetFillStyle(i.lastFill)
	}
	if stroke != nil && i.lastStroke != nil && i.lastStroke != stroke {
		s.SetStrokeStyle(i.lastStroke)
	}
}

// execDrawText lays the instruction's text out along its path and places
// one label image per chunk: a halo rendition first when a stroke key is
// set, then a fill rendition, so fills paint over halos.
func (i *interp) execDrawText(ins *Instruction, pix []float64, feature mapscene.Feature) {
	o := ins.Text
	group := o.Declutter
	if i.featureCallback != nil {
		group = nil
	}
	if i.layout == nil || i.labels == nil || o.Measure == nil {
		i.withdrawPlacement(group, feature)
		return
	}

	pathLength := lineStringLength(pix, ins.Start, ins.End)
	textLength := o.Measure(o.Text)
	if !o.Overflow && textLength > pathLength {
		i.withdrawPlacement(group, feature)
		return
	}
	startM := (pathLength - textLength) * o.Align
	chunks := i.layout(pix, ins.Start, ins.End, o.Text, o.Measure, startM, o.MaxAngle)
	if len(chunks) == 0 {
		i.withdrawPlacement(group, feature)
		return
	}

	type chunkPlacement struct {
		x, y float64
		opts ImageOptions
	}
	var placements []chunkPlacement
	if o.StrokeKey != "" {
		for _, ch := range chunks {
			label := i.labels.Label(ch.Text, o.TextKey, "", o.StrokeKey)
			if label == nil {
				continue
			}
			lw, lh := label.Size()
			placements = append(placements, chunkPlacement{
				x: ch.X, y: ch.Y,
				opts: ImageOptions{
					Image:    label,
					AnchorX:  ch.AnchorX + o.StrokeWidth,
					AnchorY:  o.Baseline*float64(lh) + (0.5-o.Baseline)*2*o.StrokeWidth - o.OffsetY,
					Width:    float64(lw),
					Height:   float64(lh),
					Opacity:  1,
					Rotation: ch.Rotation,
					Scale:    o.Scale,
				},
			})
		}
	}
	if o.FillKey != "" {
		for _, ch := range chunks {
			label := i.labels.Label(ch.Text, o.TextKey, o.FillKey, "")
			if label == nil {
				continue
			}
			lw, lh := label.Size()
			placements = append(placements, chunkPlacement{
				x: ch.X, y: ch.Y,
				opts: ImageOptions{
					Image:    label,
					AnchorX:  ch.AnchorX,
					AnchorY:  o.Baseline*float64(lh) - o.OffsetY,
					Width:    float64(lw),
					Height:   float64(lh),
					Opacity:  1,
					Rotation: ch.Rotation,
					Scale:    o.Scale,
				},
			})
		}
	}

	if group != nil {
		group.grow(len(placements) - 1)
	}
	for p := range placements {
		i.drawPlacement(placements[p].x, placements[p].y, &placements[p].opts, group)
	}
	i.resolveDeclutter(group, feature)
}

// withdrawPlacement removes one expected contribution from a declutter
// group when an instruction yields no placements, so placements already
// deferred by its siblings can still resolve.
func (i *interp) withdrawPlacement(group *DeclutterGroup, feature mapscene.Feature) {
	if group == nil {
		return
	}
	group.grow(-1)
	i.resolveDeclutter(group, feature)
}

// execCustom re-inflates the instruction's coordinate structure, caching
// the result per instruction until the pixel coordinates are recomputed,
// and invokes the renderer callback.
func (i *interp) execCustom(ip int, ins *Instruction, pix []float64, feature mapscene.Feature) {
	c := ins.Custom
	coords, ok := i.rec.customScratch[ip]
	if !ok {
		if c.Inflate == nil {
			return
		}
		coords = c.Inflate(pix, ins.Start, c)
		i.rec.customScratch[ip] = coords
	}
	c.Renderer(coords, &RenderState{
		Surface:    i.surface,
		PixelRatio: i.rec.pixelRatio,
		Resolution: i.rec.resolution,
		Rotation:   i.viewRotation,
		Geometry:   c.Geometry,
		Feature:    feature,
	})
}

// rotateAbout rotates (x, y) around (cx, cy).
func rotateAbout(x, y, cx, cy, sin, cos float64) (float64, float64) {
	dx := x - cx
	dy := y - cy
	return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
}

// lineStringLength sums segment lengths of the polyline in pix[start:end).
func lineStringLength(pix []float64, start, end int) float64 {
	var length float64
	for d := start + 2; d+1 < end; d += 2 {
		length += math.Hypot(pix[d]-pix[d-2], pix[d+1]-pix[d-1])
	}
	return length
}
