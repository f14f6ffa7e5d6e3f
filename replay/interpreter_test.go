package replay

import (
	"fmt"
	"math"
	"testing"

	"github.com/gogpu/mapscene"
)

func TestPixelCacheReuse(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetStrokeStyle(&StrokeState{Paint: mapscene.RGB(0, 0, 0), Width: 1})
	f := feature("a", lineGeometry(0, 0, 10, 10))
	r.DrawLineString(f.geom, f)
	r.Finish()

	identity := mapscene.Identity()
	r.Replay(newCallSurface(), identity, 0, nil)
	if got := r.Recomputations(); got != 1 {
		t.Fatalf("first replay: expected 1 recomputation, got %d", got)
	}
	r.Replay(newCallSurface(), identity, 0, nil)
	if got := r.Recomputations(); got != 1 {
		t.Errorf("same transform: expected cached coords, got %d recomputations", got)
	}

	shifted := mapscene.Transform{A: 1, E: 1, C: 5}
	r.Replay(newCallSurface(), shifted, 0, nil)
	if got := r.Recomputations(); got != 2 {
		t.Errorf("new transform: expected 2 recomputations, got %d", got)
	}
	r.ReplayHitDetection(newCallSurface(), shifted, 0, nil, func(mapscene.Feature) any { return nil }, nil)
	if got := r.Recomputations(); got != 2 {
		t.Errorf("hit replay, same transform: expected cached coords, got %d recomputations", got)
	}
}

func recordSquares(t *testing.T, n int, opts ...RecorderOption) *Recorder {
	t.Helper()
	r := NewRecorder(mapscene.NewExtent(-10, -10, 10000, 10000), 1, opts...)
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(200, 200, 200)})
	for i := 0; i < n; i++ {
		g := polygonGeometry(squareRing(float64(i*20), 0, 10)...)
		r.DrawPolygon(g, feature(fmt.Sprintf("f%d", i), g))
	}
	r.Finish()
	return r
}

func TestBatchedFillFlushes(t *testing.T) {
	// 200 consecutive fills with batching enabled coalesce into a single
	// flush at stream end.
	r := recordSquares(t, batchThreshold)
	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if got := s.count("fill"); got != 1 {
		t.Errorf("batched: expected 1 fill flush, got %d", got)
	}
}

func TestOverlapsDisableBatching(t *testing.T) {
	// Overlapping geometries force one discrete fill per Fill instruction
	// to preserve paint order.
	r := recordSquares(t, batchThreshold, WithOverlaps(true))
	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if got := s.count("fill"); got != batchThreshold {
		t.Errorf("overlapping: expected %d fill flushes, got %d", batchThreshold, got)
	}
}

func TestHitReplayDisablesBatching(t *testing.T) {
	r := recordSquares(t, 3)
	s := newCallSurface()
	r.ReplayHitDetection(s, mapscene.Identity(), 0, nil, func(mapscene.Feature) any { return nil }, nil)
	if got := s.count("fill"); got != 3 {
		t.Errorf("hit replay: expected 3 discrete fills, got %d", got)
	}
}

func TestStyleChangeFlushesPending(t *testing.T) {
	r := NewRecorder(mapscene.NewExtent(-10, -10, 1000, 1000), 1)
	g1 := polygonGeometry(squareRing(0, 0, 10)...)
	g2 := polygonGeometry(squareRing(50, 0, 10)...)
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(255, 0, 0)})
	r.DrawPolygon(g1, feature("a", g1))
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(0, 255, 0)})
	r.DrawPolygon(g2, feature("b", g2))
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	// The second SetFillStyle must flush the first polygon's pending fill
	// before applying, plus the end-of-stream flush: two fills total.
	if got := s.count("fill"); got != 2 {
		t.Errorf("expected 2 fill flushes around style change, got %d", got)
	}
	// setFill order: red, flush, green.
	var seq []string
	for _, c := range s.calls {
		if c == "fill" || c == "setFill" {
			seq = append(seq, c)
		}
	}
	want := []string{"setFill", "fill", "setFill", "fill"}
	if len(seq) != len(want) {
		t.Fatalf("expected call sequence %v, got %v", want, seq)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("expected call sequence %v, got %v", want, seq)
		}
	}
}

func TestSkipSet(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetStrokeStyle(&StrokeState{Paint: mapscene.RGB(0, 0, 0), Width: 1})
	a := feature("a", lineGeometry(0, 0, 10, 10))
	b := feature("b", lineGeometry(20, 20, 30, 30))
	r.DrawLineString(a.geom, a)
	r.DrawLineString(b.geom, b)
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, SkipSet{a: {}})
	if got := s.count("stroke"); got != 1 {
		t.Errorf("expected 1 stroke with feature a skipped, got %d", got)
	}

	s = newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, SkipSet{a: {}, b: {}})
	if got := s.count("stroke"); got != 0 {
		t.Errorf("expected no strokes with all features skipped, got %d", got)
	}
}

func TestHitCallbackTopmostFirst(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(1, 2, 3)})
	bottom := feature("bottom", polygonGeometry(squareRing(0, 0, 10)...))
	top := feature("top", polygonGeometry(squareRing(0, 0, 10)...))
	r.DrawPolygon(bottom.geom, bottom)
	r.DrawPolygon(top.geom, top)
	r.Finish()

	var seen []mapscene.Feature
	result := r.ReplayHitDetection(newCallSurface(), mapscene.Identity(), 0, nil,
		func(f mapscene.Feature) any {
			seen = append(seen, f)
			return nil
		}, nil)
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
	if len(seen) != 2 || seen[0] != top || seen[1] != bottom {
		t.Errorf("expected topmost-first order [top bottom], got %v", seen)
	}
}

func TestHitCallbackShortCircuit(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(1, 2, 3)})
	bottom := feature("bottom", polygonGeometry(squareRing(0, 0, 10)...))
	top := feature("top", polygonGeometry(squareRing(0, 0, 10)...))
	r.DrawPolygon(bottom.geom, bottom)
	r.DrawPolygon(top.geom, top)
	r.Finish()

	calls := 0
	result := r.ReplayHitDetection(newCallSurface(), mapscene.Identity(), 0, nil,
		func(f mapscene.Feature) any {
			calls++
			return f
		}, nil)
	if result != top {
		t.Errorf("expected short-circuit result top, got %v", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 callback call, got %d", calls)
	}
}

func TestHitExtentCulling(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(1, 2, 3)})
	near := feature("near", polygonGeometry(squareRing(0, 0, 10)...))
	far := feature("far", polygonGeometry(squareRing(80, 80, 10)...))
	r.DrawPolygon(near.geom, near)
	r.DrawPolygon(far.geom, far)
	r.Finish()

	hitExtent := mapscene.NewExtent(-1, -1, 1, 1)
	var seen []mapscene.Feature
	r.ReplayHitDetection(newCallSurface(), mapscene.Identity(), 0, nil,
		func(f mapscene.Feature) any {
			seen = append(seen, f)
			return nil
		}, &hitExtent)
	if len(seen) != 1 || seen[0] != near {
		t.Errorf("expected only the near feature, got %v", seen)
	}
}

func TestCircleReplay(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetFillStyle(&FillState{Paint: mapscene.RGB(1, 2, 3)})
	circle := &testGeometry{kind: mapscene.KindCircle, flat: []float64{10, 20, 13, 24}, ends: []int{4}}
	f := feature("a", circle)
	r.DrawCircle(circle, f)
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	// Radius is hypot(3, 4) = 5, reconstructed in pixel space.
	wantArc := "arc(10,20,5)"
	found := false
	for _, c := range s.calls {
		if c == wantArc {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q in %v", wantArc, s.calls)
	}
}

func TestMoveLineToPixelDedup(t *testing.T) {
	r := NewRecorder(mapscene.NewExtent(0, 0, 10000, 10000), 1)
	r.SetStrokeStyle(&StrokeState{Paint: mapscene.RGB(0, 0, 0), Width: 1})
	// All vertices inside the extent survive simplification; a shrinking
	// transform collapses the middle ones onto the same pixel at replay.
	f := feature("a", lineGeometry(0, 0, 1000, 0, 1010, 0, 1020, 0, 5000, 0))
	r.DrawLineString(f.geom, f)
	r.Finish()

	s := newCallSurface()
	shrink := mapscene.Transform{A: 0.001, E: 0.001}
	r.Replay(s, shrink, 0, nil)
	// moveTo(0,0); 1000 and 1010 round to pixel 1, so only the first is
	// drawn; 1020 also rounds to 1 and is dropped; 5000 is the final
	// vertex, always emitted.
	if got := s.count("moveTo(0,0)"); got != 1 {
		t.Errorf("expected 1 moveTo, got %d", got)
	}
	lineTos := 0
	for _, c := range s.calls {
		if len(c) > 6 && c[:6] == "lineTo" {
			lineTos++
		}
	}
	if lineTos != 2 {
		t.Errorf("expected 2 lineTo calls after pixel dedup, got %d (%v)", lineTos, s.calls)
	}
}

func TestDrawImagePlacement(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetImageStyle(&ImageOptions{
		Image:   &testImage{w: 16, h: 16},
		AnchorX: 8, AnchorY: 8,
		Width: 16, Height: 16,
		Opacity: 0.5, Scale: 2,
	})
	f := feature("a", pointGeometry(100, 100))
	r.DrawPoint(f.geom, f)
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if len(s.images) != 1 {
		t.Fatalf("expected 1 image placement, got %d", len(s.images))
	}
	p := s.images[0]
	// Anchor scales with the image: placement origin is 100 - 8*2.
	if p.X != 84 || p.Y != 84 {
		t.Errorf("expected origin (84,84), got (%g,%g)", p.X, p.Y)
	}
	if p.CenterX != 100 || p.CenterY != 100 {
		t.Errorf("expected rotation center (100,100), got (%g,%g)", p.CenterX, p.CenterY)
	}
	if p.Opacity != 0.5 || p.Scale != 2 {
		t.Errorf("expected opacity 0.5 scale 2, got %g/%g", p.Opacity, p.Scale)
	}
}

func TestDrawImageOffSurfaceSkipped(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetImageStyle(&ImageOptions{
		Image: &testImage{w: 16, h: 16},
		Width: 16, Height: 16,
		Opacity: 1, Scale: 1,
	})
	f := feature("a", pointGeometry(-5000, -5000))
	r.DrawPoint(f.geom, f)
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if len(s.images) != 0 {
		t.Errorf("expected off-surface placement skipped, got %d draws", len(s.images))
	}
}

func TestRotateWithView(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetImageStyle(&ImageOptions{
		Image:          &testImage{w: 16, h: 16},
		Width:          16,
		Height:         16,
		Opacity:        1,
		Scale:          1,
		Rotation:       math.Pi / 4,
		RotateWithView: true,
	})
	f := feature("a", pointGeometry(100, 100))
	r.DrawPoint(f.geom, f)
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), math.Pi/4, nil)
	if len(s.images) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(s.images))
	}
	if got, want := s.images[0].Rotation, math.Pi/2; math.Abs(got-want) > 1e-12 {
		t.Errorf("expected composed rotation %g, got %g", want, got)
	}
}

func TestCustomRendererInvocation(t *testing.T) {
	r := NewRecorder(testExtent, 1, WithPixelRatio(2))
	g := lineGeometry(0, 0, 10, 10)
	f := feature("a", g)

	var gotCoords any
	var gotState *RenderState
	calls := 0
	r.DrawCustom(g, f, func(coords any, rs *RenderState) {
		calls++
		gotCoords = coords
		gotState = rs
	})
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0.5, nil)
	if calls != 1 {
		t.Fatalf("expected 1 renderer call, got %d", calls)
	}
	pairs, ok := gotCoords.([][]float64)
	if !ok {
		t.Fatalf("expected [][]float64 coords for a line, got %T", gotCoords)
	}
	if len(pairs) != 2 {
		t.Errorf("expected 2 positions, got %d", len(pairs))
	}
	if gotState.Feature != f || gotState.Geometry != mapscene.Geometry(g) {
		t.Error("render state carries wrong feature or geometry")
	}
	if gotState.PixelRatio != 2 || gotState.Rotation != 0.5 {
		t.Errorf("expected pixelRatio 2 rotation 0.5, got %g/%g", gotState.PixelRatio, gotState.Rotation)
	}

	// Scratch coordinates are cached per instruction until the transform
	// changes.
	r.Replay(s, mapscene.Identity(), 0.5, nil)
	if calls != 2 {
		t.Fatalf("expected renderer re-invoked, got %d calls", calls)
	}
	if &pairs[0][0] != &gotCoords.([][]float64)[0][0] {
		t.Error("expected cached scratch coordinates on second replay")
	}
}

func TestUnknownOpcodeSkipped(t *testing.T) {
	r := NewRecorder(testExtent, 1)
	r.SetStrokeStyle(&StrokeState{Paint: mapscene.RGB(0, 0, 0), Width: 1})
	f := feature("a", lineGeometry(0, 0, 10, 10))
	r.DrawLineString(f.geom, f)
	// Inject a bogus opcode mid-stream.
	r.instructions = append(r.instructions, Instruction{Op: 0xEE})
	r.DrawLineString(f.geom, f)
	r.Finish()

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if got := s.count("stroke"); got != 1 {
		// Both strokes batch into one flush; the point is that replay ran
		// to completion past the unknown op.
		t.Errorf("expected replay to continue past unknown op, got %d strokes", got)
	}
}
