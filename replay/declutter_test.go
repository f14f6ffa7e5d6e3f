package replay

import (
	"testing"

	"github.com/gogpu/mapscene"
)

func declutterOptions(img Image, group *DeclutterGroup) *ImageOptions {
	w, h := img.Size()
	return &ImageOptions{
		Image:     img,
		Width:     float64(w),
		Height:    float64(h),
		Opacity:   1,
		Scale:     1,
		Declutter: group,
	}
}

func TestDeclutterGroupCommit(t *testing.T) {
	idx := &testIndex{}
	s := newCallSurface()
	i := &interp{surface: s, index: idx, surfW: 256, surfH: 256}

	group := NewDeclutterGroup(2)
	icon := &testImage{w: 16, h: 16}
	label := &testImage{w: 40, h: 12}
	f := feature("a", pointGeometry(50, 50))

	i.drawPlacement(50, 50, declutterOptions(icon, group), group)
	if len(s.images) != 0 {
		t.Fatal("placement drew before the group was complete")
	}
	i.drawPlacement(50, 70, declutterOptions(label, group), group)
	i.resolveDeclutter(group, f)

	if len(s.drawn) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(s.drawn))
	}
	// Submission order is preserved.
	if s.drawn[0] != Image(icon) || s.drawn[1] != Image(label) {
		t.Error("declutter draws out of submission order")
	}
	if len(idx.boxes) != 1 {
		t.Errorf("expected 1 index insertion for the group, got %d", len(idx.boxes))
	}
	if idx.boxes[0].Value != mapscene.Feature(f) {
		t.Error("index box carries wrong feature")
	}
}

func TestDeclutterCollisionSuppressesGroup(t *testing.T) {
	idx := &testIndex{}
	idx.Insert(Box{MinX: 40, MinY: 40, MaxX: 60, MaxY: 60})

	s := newCallSurface()
	i := &interp{surface: s, index: idx, surfW: 256, surfH: 256}

	group := NewDeclutterGroup(2)
	icon := &testImage{w: 16, h: 16}
	f := feature("a", pointGeometry(50, 50))

	i.drawPlacement(50, 50, declutterOptions(icon, group), group)
	i.drawPlacement(52, 52, declutterOptions(icon, group), group)
	i.resolveDeclutter(group, f)

	if len(s.drawn) != 0 {
		t.Errorf("expected colliding group suppressed, got %d draws", len(s.drawn))
	}
	if len(idx.boxes) != 1 {
		t.Errorf("expected no insertion for a suppressed group, got %d boxes", len(idx.boxes))
	}
}

func TestDeclutterDoomedGroup(t *testing.T) {
	idx := &testIndex{}
	s := newCallSurface()
	i := &interp{surface: s, index: idx, surfW: 256, surfH: 256}

	// One on-surface placement, then one far off-surface: the whole group
	// is discarded without waiting for its expected count.
	group := NewDeclutterGroup(3)
	icon := &testImage{w: 16, h: 16}
	f := feature("a", pointGeometry(50, 50))

	i.drawPlacement(50, 50, declutterOptions(icon, group), group)
	i.drawPlacement(-5000, -5000, declutterOptions(icon, group), group)
	if !group.ready() {
		t.Fatal("off-surface placement should make the group resolvable")
	}
	i.resolveDeclutter(group, f)

	if len(s.drawn) != 0 {
		t.Errorf("expected doomed group discarded, got %d draws", len(s.drawn))
	}
	if len(idx.boxes) != 0 {
		t.Errorf("expected no insertion for a doomed group, got %d boxes", len(idx.boxes))
	}
}

func TestDeclutterUnreadyGroupWaits(t *testing.T) {
	s := newCallSurface()
	i := &interp{surface: s, index: &testIndex{}, surfW: 256, surfH: 256}

	group := NewDeclutterGroup(2)
	icon := &testImage{w: 16, h: 16}
	f := feature("a", pointGeometry(50, 50))

	i.drawPlacement(50, 50, declutterOptions(icon, group), group)
	i.resolveDeclutter(group, f)

	if len(s.drawn) != 0 {
		t.Errorf("incomplete group resolved early: %d draws", len(s.drawn))
	}
	if len(group.entries) != 1 {
		t.Errorf("expected pending entry retained, got %d", len(group.entries))
	}
}

func TestDeclutterGroupResetAfterResolve(t *testing.T) {
	s := newCallSurface()
	i := &interp{surface: s, index: &testIndex{}, surfW: 256, surfH: 256}

	group := NewDeclutterGroup(1)
	icon := &testImage{w: 16, h: 16}
	f := feature("a", pointGeometry(50, 50))

	i.drawPlacement(50, 50, declutterOptions(icon, group), group)
	i.resolveDeclutter(group, f)
	if len(s.drawn) != 1 {
		t.Fatalf("expected 1 draw, got %d", len(s.drawn))
	}
	if len(group.entries) != 0 || group.doomed {
		t.Error("group not reset after resolution")
	}
	if !group.Extent().IsEmpty() {
		t.Error("group extent not reset after resolution")
	}

	// The group is reusable for the next feature.
	i.drawPlacement(200, 200, declutterOptions(icon, group), group)
	i.resolveDeclutter(group, f)
	if len(s.drawn) != 2 {
		t.Errorf("expected reused group to draw again, got %d draws", len(s.drawn))
	}
}

func TestDeclutterWithoutIndexDrawsDeferred(t *testing.T) {
	s := newCallSurface()
	i := &interp{surface: s, surfW: 256, surfH: 256}

	group := NewDeclutterGroup(1)
	icon := &testImage{w: 16, h: 16}
	f := feature("a", pointGeometry(50, 50))

	i.drawPlacement(50, 50, declutterOptions(icon, group), group)
	i.resolveDeclutter(group, f)
	if len(s.drawn) != 1 {
		t.Errorf("expected deferred draw without an index, got %d", len(s.drawn))
	}
}

func TestDeclutterGroupReplaySecondTime(t *testing.T) {
	// A multi-point placement grows its group's expected count at replay
	// time. Resolution must restore the construction-time count, or the
	// group can never become ready again on the next replay.
	group := NewDeclutterGroup(1)
	r := NewRecorder(testExtent, 1)
	r.SetImageStyle(declutterOptions(&testImage{w: 8, h: 8}, group))
	g := &testGeometry{kind: mapscene.KindMultiPoint, flat: []float64{10, 10, 40, 40}, ends: []int{4}}
	f := feature("a", g)
	r.DrawMultiPoint(g, f)
	r.Finish()

	for n := 1; n <= 2; n++ {
		s := newCallSurface()
		r.Replay(s, mapscene.Identity(), 0, nil)
		if len(s.drawn) != 2 {
			t.Errorf("replay %d: expected 2 draws, got %d", n, len(s.drawn))
		}
	}
}

func sharedGroupRecorder(group *DeclutterGroup, icon Image, measure MeasureFunc, layout LayoutFunc) *Recorder {
	r := NewRecorder(testExtent, 1,
		WithLabelProvider(testLabels{}),
		WithTextLayout(layout))
	pt := pointGeometry(50, 50)
	r.SetImageStyle(declutterOptions(icon, group))
	r.DrawPoint(pt, feature("icon", pt))

	r.SetTextStyle(&TextOptions{
		Text:      "label",
		Measure:   measure,
		Scale:     1,
		TextKey:   "t",
		FillKey:   "f",
		Declutter: group,
	})
	line := lineGeometry(0, 0, 10, 0)
	r.DrawText(line, feature("label", line))
	r.Finish()
	return r
}

func TestTextNoFitReleasesGroup(t *testing.T) {
	// An icon and its label share a group. A label longer than its path
	// contributes nothing; it must withdraw its expected placement so the
	// icon still resolves.
	group := NewDeclutterGroup(2)
	icon := &testImage{w: 16, h: 16}
	r := sharedGroupRecorder(group, icon,
		func(string) float64 { return 1000 },
		func(pix []float64, begin, end int, text string, measure MeasureFunc, startM, maxAngle float64) []Chunk {
			return []Chunk{{X: 5, Y: 0, Text: text}}
		})

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if len(s.drawn) != 1 || s.drawn[0] != Image(icon) {
		t.Errorf("expected only the icon drawn after the label withdrew, got %d draws", len(s.drawn))
	}
}

func TestTextEmptyLayoutReleasesGroup(t *testing.T) {
	// Same shared group, but the layout itself rejects the text (for example
	// a too-sharp bend). The icon must still resolve.
	group := NewDeclutterGroup(2)
	icon := &testImage{w: 16, h: 16}
	r := sharedGroupRecorder(group, icon,
		func(string) float64 { return 5 },
		func(pix []float64, begin, end int, text string, measure MeasureFunc, startM, maxAngle float64) []Chunk {
			return nil
		})

	s := newCallSurface()
	r.Replay(s, mapscene.Identity(), 0, nil)
	if len(s.drawn) != 1 || s.drawn[0] != Image(icon) {
		t.Errorf("expected only the icon drawn after layout yielded nothing, got %d draws", len(s.drawn))
	}
}

func TestHitReplayIgnoresDeclutter(t *testing.T) {
	// Hit detection must test every feature, not a collision-thinned set:
	// declutter groups are bypassed when a feature callback runs.
	group := NewDeclutterGroup(2)
	r := NewRecorder(testExtent, 1, WithDeclutterIndex(&testIndex{}))
	r.SetImageStyle(declutterOptions(&testImage{w: 16, h: 16}, group))
	f := feature("a", pointGeometry(50, 50))
	r.DrawPoint(f.geom, f)
	r.Finish()

	s := newCallSurface()
	r.ReplayHitDetection(s, mapscene.Identity(), 0, nil, func(mapscene.Feature) any { return nil }, nil)
	if len(s.drawn) != 1 {
		t.Errorf("expected immediate draw during hit replay, got %d", len(s.drawn))
	}
	if len(group.entries) != 0 {
		t.Errorf("hit replay leaked entries into the declutter group: %d", len(group.entries))
	}
}
