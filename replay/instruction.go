package replay

import (
	"github.com/gogpu/mapscene"
)

// Op is the single-byte command identifier in an instruction stream.
// Ops are organized into groups by their high nibble:
//
//	0x0X: Geometry bracketing
//	0x1X: Path construction
//	0x2X: Style changes
//	0x3X: Paint operations
//	0x4X: Placement operations (images, labels)
//	0x5X: Custom rendering
type Op byte

// Op constants define all instruction commands.
// Each op has a fixed operand layout documented in its comment.
const (
	// OpBeginGeometry brackets the start of one feature's instructions.
	// Operands: Feature, JumpTarget (index one past the paired
	// OpEndGeometry, backpatched when the geometry ends).
	OpBeginGeometry Op = 0x01

	// OpEndGeometry brackets the end of one feature's instructions.
	// Operands: Feature.
	OpEndGeometry Op = 0x02

	// OpBeginPath starts a new path on the surface.
	// Operands: none.
	OpBeginPath Op = 0x10

	// OpMoveLineTo draws a polyline from a coordinate-buffer range.
	// Operands: Start, End (indices into the coordinate buffer).
	OpMoveLineTo Op = 0x11

	// OpCircle draws a circle reconstructed from two buffered points:
	// the center and a point on the circumference.
	// Operands: Start (index of the center; the radius point follows).
	OpCircle Op = 0x12

	// OpClosePath closes the current subpath.
	// Operands: none.
	OpClosePath Op = 0x13

	// OpSetFillStyle applies a fill style to the surface.
	// Operands: Fill.
	OpSetFillStyle Op = 0x20

	// OpSetStrokeStyle applies a stroke style to the surface.
	// Operands: Stroke.
	OpSetStrokeStyle Op = 0x21

	// OpFill fills the current path.
	// Operands: none.
	OpFill Op = 0x30

	// OpStroke strokes the current path.
	// Operands: none.
	OpStroke Op = 0x31

	// OpDrawImage places an image at each point of a coordinate range.
	// Operands: Start, End, Image.
	OpDrawImage Op = 0x40

	// OpDrawText lays text out along the path in a coordinate range and
	// places one label image per text chunk.
	// Operands: Start, End, Text.
	OpDrawText Op = 0x41

	// OpCustom re-inflates buffered coordinates and hands them to a
	// user-supplied renderer callback.
	// Operands: Start, End, Custom.
	OpCustom Op = 0x50
)

// String returns a human-readable name for the op.
func (op Op) String() string {
	switch op {
	case OpBeginGeometry:
		return "BeginGeometry"
	case OpEndGeometry:
		return "EndGeometry"
	case OpBeginPath:
		return "BeginPath"
	case OpMoveLineTo:
		return "MoveLineTo"
	case OpCircle:
		return "Circle"
	case OpClosePath:
		return "ClosePath"
	case OpSetFillStyle:
		return "SetFillStyle"
	case OpSetStrokeStyle:
		return "SetStrokeStyle"
	case OpFill:
		return "Fill"
	case OpStroke:
		return "Stroke"
	case OpDrawImage:
		return "DrawImage"
	case OpDrawText:
		return "DrawText"
	case OpCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// IsPathOp returns true if the op is a path construction command.
func (op Op) IsPathOp() bool {
	return op >= OpBeginPath && op <= OpClosePath
}

// IsStyleOp returns true if the op is a style change command.
func (op Op) IsStyleOp() bool {
	return op == OpSetFillStyle || op == OpSetStrokeStyle
}

// IsPaintOp returns true if the op paints the current path.
func (op Op) IsPaintOp() bool {
	return op == OpFill || op == OpStroke
}

// FillState is a resolved fill style. The recorder keeps a shadow
// "currently applied" copy for change detection, so that a stream contains
// one OpSetFillStyle per actual style transition rather than one per
// geometry.
type FillState struct {
	// Paint is the fill color or pattern.
	Paint mapscene.Paint

	// OriginX/OriginY anchor pattern-like paints to a world position so
	// they do not swim as the view pans. Ignored for solid paints.
	OriginX, OriginY float64
}

// Equal reports whether two fill states would produce identical surface
// state.
func (f *FillState) Equal(o *FillState) bool {
	if f == nil || o == nil {
		return f == o
	}
	return mapscene.PaintEqual(f.Paint, o.Paint) &&
		f.OriginX == o.OriginX && f.OriginY == o.OriginY
}

// StrokeState is a resolved stroke style.
type StrokeState struct {
	Paint      mapscene.Paint
	Width      float64
	LineCap    mapscene.LineCap
	LineJoin   mapscene.LineJoin
	MiterLimit float64
	Dash       []float64
	DashOffset float64
}

// Equal reports whether two stroke states would produce identical surface
// state. Dash arrays compare element-wise.
func (s *StrokeState) Equal(o *StrokeState) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !mapscene.PaintEqual(s.Paint, o.Paint) ||
		s.Width != o.Width ||
		s.LineCap != o.LineCap ||
		s.LineJoin != o.LineJoin ||
		s.MiterLimit != o.MiterLimit ||
		s.DashOffset != o.DashOffset {
		return false
	}
	if len(s.Dash) != len(o.Dash) {
		return false
	}
	for i := range s.Dash {
		if s.Dash[i] != o.Dash[i] {
			return false
		}
	}
	return true
}

// clone returns a copy so later mutations of the source state do not
// retroactively change recorded instructions.
func (s *StrokeState) clone() *StrokeState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Dash != nil {
		c.Dash = append([]float64(nil), s.Dash...)
	}
	return &c
}

// ImageOptions are the operands of an OpDrawImage instruction.
type ImageOptions struct {
	// Image is the bitmap to place.
	Image Image

	// AnchorX/AnchorY is the point inside the unscaled image that lands on
	// the placement coordinate.
	AnchorX, AnchorY float64

	// OriginX/OriginY and Width/Height select the source sub-rectangle
	// (sprite sheet support).
	OriginX, OriginY float64
	Width, Height    float64

	// Opacity in [0, 1].
	Opacity float64

	// Rotation in radians. When RotateWithView is set, the current view
	// rotation is added at replay time.
	Rotation       float64
	RotateWithView bool

	// Scale applied to the image and the anchor.
	Scale float64

	// SnapToPixel rounds the placement origin to whole pixels.
	SnapToPixel bool

	// Padding expands the background box: top, right, bottom, left.
	Padding [4]float64

	// BackgroundFill/BackgroundStroke paint the padded box behind the
	// image using the styles in effect in the stream.
	BackgroundFill   bool
	BackgroundStroke bool

	// Declutter defers placement into a collision group; nil places
	// immediately.
	Declutter *DeclutterGroup
}

// TextOptions are the operands of an OpDrawText instruction.
type TextOptions struct {
	// Text is the label text, laid out along the instruction's path range.
	Text string

	// Baseline in [0, 1]: fraction of the label height above the path
	// (0 = top, 0.5 = middle, 1 = bottom).
	Baseline float64

	// Align in [0, 1]: position of the text along the path (0 = start,
	// 0.5 = center, 1 = end).
	Align float64

	// Overflow allows text longer than the path.
	Overflow bool

	// MaxAngle is the maximum angle delta between adjacent chunks, in
	// radians; layouts exceeding it are discarded.
	MaxAngle float64

	// Measure returns the advance width of a string in pixels.
	Measure MeasureFunc

	// OffsetY shifts the label perpendicular to its baseline.
	OffsetY float64

	// Scale applied to the label images.
	Scale float64

	// TextKey identifies the font/style used to rasterize label chunks.
	// FillKey and StrokeKey select the fill and halo renditions; an empty
	// key disables that rendition. StrokeWidth is the halo width.
	TextKey     string
	FillKey     string
	StrokeKey   string
	StrokeWidth float64

	// Declutter defers placements into a collision group; nil places
	// immediately.
	Declutter *DeclutterGroup
}

// CustomOptions are the operands of an OpCustom instruction. Exactly one of
// End, Ends, Endss describes the recorded coordinate structure; Inflate
// rebuilds the matching point/line/ring/polygon shape from pixel
// coordinates at replay time.
type CustomOptions struct {
	Geometry mapscene.Geometry
	Renderer CustomRenderer
	Inflate  InflateFunc
	End      int
	Ends     []int
	Endss    [][]int
}

// Instruction is one tagged record in an instruction stream. Op selects
// which operand fields are meaningful; all other fields are zero. Keeping
// a closed operand schema per op lets the interpreter dispatch with an
// exhaustive switch and lets the hit-detection reverser move instructions
// without understanding them.
type Instruction struct {
	Op Op

	// Feature for OpBeginGeometry / OpEndGeometry.
	Feature mapscene.Feature

	// JumpTarget for OpBeginGeometry: index one past the paired
	// OpEndGeometry. Backpatched by the recorder.
	JumpTarget int

	// Start/End bound a coordinate-buffer range for range-carrying ops.
	Start, End int

	Fill   *FillState     // OpSetFillStyle
	Stroke *StrokeState   // OpSetStrokeStyle
	Image  *ImageOptions  // OpDrawImage
	Text   *TextOptions   // OpDrawText
	Custom *CustomOptions // OpCustom
}
