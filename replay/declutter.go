package replay

import (
	"github.com/gogpu/mapscene"
)

// DeclutterGroup collects image/label placements that must be accepted or
// rejected as a unit — typically an icon plus its label. Each deferred
// placement carries its bounding box, which is unioned into the group's
// running extent; once the group is complete it is resolved in one step
// against the frame's spatial index, so a colliding unit is never placed
// partially.
//
// A group is created with the number of placements it expects and may be
// reused across frames: resolving it resets it to the empty state.
type DeclutterGroup struct {
	extent mapscene.Extent

	// base is the construction-time placement count; expected starts at
	// base and is adjusted per replay as instructions fan out or withdraw.
	base     int
	expected int
	entries  []declutterEntry

	// doomed is set when a single off-surface placement proves the whole
	// group cannot be visible; remaining placements are then discarded
	// without consulting the index.
	doomed bool
}

// declutterEntry is one deferred placement plus the state needed to draw
// it later in original order.
type declutterEntry struct {
	img       Image
	placement ImagePlacement

	// Background box, drawn before the image when fill/stroke are set.
	corners  [4][2]float64
	bgFill   *FillState
	bgStroke *StrokeState
	hasBG    bool
}

// NewDeclutterGroup returns a group expecting the given number of
// placements. expected must be at least 1.
func NewDeclutterGroup(expected int) *DeclutterGroup {
	if expected < 1 {
		expected = 1
	}
	return &DeclutterGroup{
		extent:   mapscene.EmptyExtent(),
		base:     expected,
		expected: expected,
	}
}

// Extent returns the group's running extent.
func (g *DeclutterGroup) Extent() mapscene.Extent {
	return g.extent
}

// reset returns the group to its empty, reusable state. The expected count
// goes back to its construction-time value so replay-time adjustments from
// one replay never leak into the next.
func (g *DeclutterGroup) reset() {
	g.extent = mapscene.EmptyExtent()
	g.expected = g.base
	g.entries = g.entries[:0]
	g.doomed = false
}

// add records one deferred placement and unions box into the group extent.
func (g *DeclutterGroup) add(e declutterEntry, box mapscene.Extent) {
	g.extent = g.extent.Extend(box)
	g.entries = append(g.entries, e)
}

// grow adjusts the expected count when one logical placement fans out into
// several entries (one per placement point or laid-out text chunk), or
// produced none at all (n negative). The adjustment lasts until the group
// resolves; reset restores the construction-time count.
func (g *DeclutterGroup) grow(n int) {
	g.expected += n
}

// addInvisible records that one of the group's placements fell entirely
// outside the surface, dooming the whole group.
func (g *DeclutterGroup) addInvisible(box mapscene.Extent) {
	g.extent = g.extent.Extend(box)
	g.entries = append(g.entries, declutterEntry{})
	g.doomed = true
}

// ready reports whether the group can be resolved: either all expected
// placements have arrived, or a single off-surface placement has already
// proven the group cannot be visible.
func (g *DeclutterGroup) ready() bool {
	return g.doomed || len(g.entries) >= g.expected
}

// resolveDeclutter commits or discards a completed group. If the group is
// still waiting for placements, nothing happens. A doomed group, or one
// whose extent collides in the index, is discarded silently; otherwise its
// extent is inserted into the index and every deferred placement is
// executed in original submission order, background boxes included.
func (i *interp) resolveDeclutter(g *DeclutterGroup, feature mapscene.Feature) {
	if g == nil || !g.ready() {
		return
	}
	defer g.reset()

	if g.doomed || len(g.entries) == 0 {
		return
	}
	if i.index == nil {
		// No index configured: declutter degenerates to deferred drawing.
		i.drawDeclutterEntries(g)
		return
	}

	box := Box{
		MinX:  g.extent.MinX,
		MinY:  g.extent.MinY,
		MaxX:  g.extent.MaxX,
		MaxY:  g.extent.MaxY,
		Value: feature,
	}
	if i.index.Collides(box) {
		mapscene.Logger().Debug("declutter: group suppressed",
			"minX", box.MinX, "minY", box.MinY, "maxX", box.MaxX, "maxY", box.MaxY)
		return
	}
	i.index.Insert(box)
	i.drawDeclutterEntries(g)
}

// drawDeclutterEntries executes a group's deferred placements in order.
func (i *interp) drawDeclutterEntries(g *DeclutterGroup) {
	for _, e := range g.entries {
		if e.img == nil {
			continue
		}
		if e.hasBG {
			i.drawPlacementBackground(e.corners, e.bgFill, e.bgStroke)
		}
		i.surface.DrawImage(e.img, e.placement)
	}
}
