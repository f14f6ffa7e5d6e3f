package replay

import (
	"github.com/gogpu/mapscene"
)

// Surface is the immediate-mode drawing surface the interpreter executes
// against. It is a deliberately small, canvas-shaped contract: path
// construction, paint operations, surface-state setters, and a size query
// used for visibility culling. Backends live under surface/.
//
// Surfaces are stateful: a fill or stroke style stays applied until the
// next setter call, and path construction accumulates until the next
// BeginPath.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	// Arc appends a circular arc around (cx, cy) from startAngle to
	// endAngle in radians.
	Arc(cx, cy, radius, startAngle, endAngle float64)
	ClosePath()

	// Fill paints the current path with the applied fill style.
	Fill()
	// Stroke outlines the current path with the applied stroke style.
	Stroke()

	// SetFillStyle applies a fill style.
	SetFillStyle(f *FillState)
	// SetStrokeStyle applies a stroke style.
	SetStrokeStyle(s *StrokeState)

	// DrawImage blits an image placement.
	DrawImage(img Image, p ImagePlacement)
}

// Image is an opaque bitmap handle. Surfaces assert it to the concrete
// image representation they support (image.Image for the raster backend,
// *ebiten.Image for the ebiten backend).
type Image interface {
	// Size returns the image dimensions in pixels.
	Size() (width, height int)
}

// ImagePlacement is a fully resolved on-screen image placement.
type ImagePlacement struct {
	// SrcX/SrcY/SrcW/SrcH select the source sub-rectangle in image pixels.
	SrcX, SrcY, SrcW, SrcH float64

	// X/Y is the destination top-left corner before rotation.
	X, Y float64

	// Scale multiplies the source rectangle into destination size.
	Scale float64

	// Rotation in radians about (CenterX, CenterY).
	Rotation         float64
	CenterX, CenterY float64

	// Opacity in [0, 1].
	Opacity float64

	// SnapToPixel rounds X/Y to whole pixels.
	SnapToPixel bool
}

// Box is an axis-aligned box with an opaque payload, the unit of the
// spatial index used for declutter collision checks.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Value      mapscene.Feature
}

// SpatialIndex is the collision structure shared by all recorders
// contributing to one frame. It must be cleared once per frame before
// replay begins; within a frame it is append/query only.
// The rindex package provides an R-tree backed implementation.
type SpatialIndex interface {
	Insert(b Box)
	Collides(b Box) bool
}

// MeasureFunc returns the advance width of text in pixels, in the font the
// owning text style was resolved against.
type MeasureFunc func(text string) float64

// Chunk is one placed run of characters produced by along-path layout.
type Chunk struct {
	// X/Y is the anchor position of the chunk on the path.
	X, Y float64

	// AnchorX is the horizontal anchor advance inside the chunk (half the
	// chunk width for middle-anchored layout).
	AnchorX float64

	// Rotation of the chunk in radians.
	Rotation float64

	// Text is the characters of the chunk.
	Text string
}

// LayoutFunc lays text out along the polyline in pixelCoords[begin:end).
// startM is the path distance at which the text starts; maxAngle bounds
// the angle delta between adjacent characters. A nil result means the text
// does not fit.
type LayoutFunc func(pixelCoords []float64, begin, end int, text string, measure MeasureFunc, startM, maxAngle float64) []Chunk

// LabelProvider rasterizes label images for text chunks. Results are
// memoized by the interpreter in a sharded LRU keyed by the full
// (chars, textKey, fillKey, strokeKey) tuple. A nil image drops the chunk.
type LabelProvider interface {
	Label(chars, textKey, fillKey, strokeKey string) Image
}

// RenderState is handed to custom renderer callbacks.
type RenderState struct {
	Surface    Surface
	PixelRatio float64
	Resolution float64
	Rotation   float64
	Geometry   mapscene.Geometry
	Feature    mapscene.Feature
}

// CustomRenderer draws a geometry itself at replay time. coords is the
// re-inflated pixel-space coordinate structure matching the recorded
// geometry kind: []float64 for a point, [][]float64 for a line string or
// multi-point, [][][]float64 for a polygon or multi-line-string, and
// [][][][]float64 for a multi-polygon.
type CustomRenderer func(coords any, rs *RenderState)

// InflateFunc rebuilds a coordinate structure from transformed pixel
// coordinates for one OpCustom instruction.
type InflateFunc func(pixelCoords []float64, start int, c *CustomOptions) any

// FeatureCallback is invoked at each feature boundary during hit-detection
// replay. The first non-nil result short-circuits the replay and is
// returned to the caller.
type FeatureCallback func(f mapscene.Feature) any

// SkipSet holds features excluded from a replay.
type SkipSet map[mapscene.Feature]struct{}
