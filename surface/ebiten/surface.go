// Package ebiten provides a GPU surface backend rendering into an
// *ebiten.Image. Fills and strokes are tessellated with the ebitengine
// vector package and drawn as triangles.
package ebiten

import (
	"image"
	"image/color"
	"math"

	eb "github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/internal/dash"
	"github.com/gogpu/mapscene/replay"
)

// arcTolerance bounds the sagitta of sampled arc segments, in pixels.
const arcTolerance = 0.1

var (
	whiteImage    = eb.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*eb.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Image wraps an *ebiten.Image as a replay.Image, so recorded image styles
// can carry GPU textures directly.
type Image struct {
	img *eb.Image
}

// NewImage wraps an ebiten image.
func NewImage(img *eb.Image) *Image {
	return &Image{img: img}
}

// Size returns the image dimensions in pixels.
func (i *Image) Size() (int, int) {
	b := i.img.Bounds()
	return b.Dx(), b.Dy()
}

// EbitenImage returns the wrapped texture.
func (i *Image) EbitenImage() *eb.Image { return i.img }

type subpath struct {
	pts    []float64
	closed bool
}

// Surface renders replay output into an ebiten image. It implements
// replay.Surface.
type Surface struct {
	dst  *eb.Image
	w, h int

	paths []subpath
	open  bool

	fill   *replay.FillState
	stroke *replay.StrokeState

	vs []eb.Vertex
	is []uint16
}

// New creates a surface rendering into dst.
func New(dst *eb.Image) *Surface {
	b := dst.Bounds()
	return &Surface{dst: dst, w: b.Dx(), h: b.Dy()}
}

// Size returns the surface dimensions in pixels.
func (s *Surface) Size() (width, height float64) {
	return float64(s.w), float64(s.h)
}

// BeginPath discards the accumulated path.
func (s *Surface) BeginPath() {
	s.paths = s.paths[:0]
	s.open = false
}

// MoveTo starts a new subpath at (x, y).
func (s *Surface) MoveTo(x, y float64) {
	s.paths = append(s.paths, subpath{pts: []float64{x, y}})
	s.open = true
}

// LineTo extends the current subpath. Without a current subpath it behaves
// like MoveTo.
func (s *Surface) LineTo(x, y float64) {
	if !s.open {
		s.MoveTo(x, y)
		return
	}
	cur := &s.paths[len(s.paths)-1]
	cur.pts = append(cur.pts, x, y)
}

// Arc appends a sampled circular arc around (cx, cy). A current subpath is
// first connected to the arc start with a line.
func (s *Surface) Arc(cx, cy, radius, startAngle, endAngle float64) {
	if radius <= 0 {
		return
	}
	step := 2 * math.Acos(math.Max(-1, 1-arcTolerance/radius))
	if step <= 0 || math.IsNaN(step) {
		step = math.Pi / 16
	}
	n := int(math.Ceil(math.Abs(endAngle-startAngle) / step))
	if n < 2 {
		n = 2
	}
	for i := 0; i <= n; i++ {
		a := startAngle + (endAngle-startAngle)*float64(i)/float64(n)
		x := cx + radius*math.Cos(a)
		y := cy + radius*math.Sin(a)
		if i == 0 && !s.open {
			s.MoveTo(x, y)
			continue
		}
		s.LineTo(x, y)
	}
}

// ClosePath closes the current subpath.
func (s *Surface) ClosePath() {
	if !s.open {
		return
	}
	s.paths[len(s.paths)-1].closed = true
	s.open = false
}

// SetFillStyle applies a fill style.
func (s *Surface) SetFillStyle(f *replay.FillState) {
	s.fill = f
}

// SetStrokeStyle applies a stroke style.
func (s *Surface) SetStrokeStyle(st *replay.StrokeState) {
	s.stroke = st
}

// Fill paints the accumulated path with the applied fill style. Open
// subpaths are closed implicitly.
func (s *Surface) Fill() {
	if s.fill == nil || len(s.paths) == 0 {
		return
	}
	c, ok := solidColor(s.fill.Paint)
	if !ok {
		return
	}
	var p vector.Path
	for _, sp := range s.paths {
		if len(sp.pts) < 6 {
			continue
		}
		appendPolyline(&p, sp.pts)
		p.Close()
	}
	s.vs, s.is = p.AppendVerticesAndIndicesForFilling(s.vs[:0], s.is[:0])
	s.drawTriangles(c)
}

// Stroke outlines the accumulated path with the applied stroke style.
func (s *Surface) Stroke() {
	st := s.stroke
	if st == nil || st.Width <= 0 || len(s.paths) == 0 {
		return
	}
	c, ok := solidColor(st.Paint)
	if !ok {
		return
	}
	op := &vector.StrokeOptions{
		Width:      float32(st.Width),
		LineCap:    lineCap(st.LineCap),
		LineJoin:   lineJoin(st.LineJoin),
		MiterLimit: float32(st.MiterLimit),
	}
	if op.MiterLimit <= 0 {
		op.MiterLimit = 10
	}
	var p vector.Path
	for _, sp := range s.paths {
		if len(sp.pts) < 4 {
			continue
		}
		if len(st.Dash) > 0 {
			for _, run := range dash.Split(sp.pts, sp.closed, st.Dash, st.DashOffset) {
				if len(run) >= 4 {
					appendPolyline(&p, run)
				}
			}
		} else {
			appendPolyline(&p, sp.pts)
			if sp.closed {
				p.Close()
			}
		}
	}
	s.vs, s.is = p.AppendVerticesAndIndicesForStroke(s.vs[:0], s.is[:0], op)
	s.drawTriangles(c)
}

// DrawImage blits an image placement, honoring the source sub-rectangle,
// scale, rotation about the placement center, and opacity.
func (s *Surface) DrawImage(img replay.Image, p replay.ImagePlacement) {
	src := sourceImage(img)
	if src == nil {
		mapscene.Logger().Debug("ebiten: unsupported image type, skipping placement")
		return
	}
	b := src.Bounds()
	sr := image.Rect(
		b.Min.X+int(math.Floor(p.SrcX)),
		b.Min.Y+int(math.Floor(p.SrcY)),
		b.Min.X+int(math.Ceil(p.SrcX+p.SrcW)),
		b.Min.Y+int(math.Ceil(p.SrcY+p.SrcH)),
	).Intersect(b)
	if sr.Empty() || p.Scale == 0 {
		return
	}
	sub := src.SubImage(sr).(*eb.Image)

	op := &eb.DrawImageOptions{Filter: eb.FilterLinear}
	op.GeoM.Scale(p.Scale, p.Scale)
	op.GeoM.Translate(p.X, p.Y)
	op.GeoM.Translate(-p.CenterX, -p.CenterY)
	op.GeoM.Rotate(p.Rotation)
	op.GeoM.Translate(p.CenterX, p.CenterY)
	if p.Opacity < 1 {
		op.ColorScale.ScaleAlpha(float32(math.Max(0, p.Opacity)))
	}
	s.dst.DrawImage(sub, op)
}

func (s *Surface) drawTriangles(c color.RGBA) {
	if len(s.is) == 0 {
		return
	}
	r := float32(c.R) / 0xff
	g := float32(c.G) / 0xff
	b := float32(c.B) / 0xff
	a := float32(c.A) / 0xff
	for i := range s.vs {
		s.vs[i].SrcX = 1
		s.vs[i].SrcY = 1
		s.vs[i].ColorR = r
		s.vs[i].ColorG = g
		s.vs[i].ColorB = b
		s.vs[i].ColorA = a
	}
	s.dst.DrawTriangles(s.vs, s.is, whiteSubImage, &eb.DrawTrianglesOptions{
		ColorScaleMode: eb.ColorScaleModeStraightAlpha,
		AntiAlias:      true,
		FillRule:       eb.FillRuleNonZero,
	})
}

func lineCap(c mapscene.LineCap) vector.LineCap {
	switch c {
	case mapscene.CapRound:
		return vector.LineCapRound
	case mapscene.CapSquare:
		return vector.LineCapSquare
	default:
		return vector.LineCapButt
	}
}

func lineJoin(j mapscene.LineJoin) vector.LineJoin {
	switch j {
	case mapscene.JoinRound:
		return vector.LineJoinRound
	case mapscene.JoinBevel:
		return vector.LineJoinBevel
	default:
		return vector.LineJoinMiter
	}
}

func appendPolyline(p *vector.Path, pts []float64) {
	p.MoveTo(float32(pts[0]), float32(pts[1]))
	for i := 2; i < len(pts); i += 2 {
		p.LineTo(float32(pts[i]), float32(pts[i+1]))
	}
}

// solidColor resolves a paint to a solid color. Pattern paints are not
// supported on this backend.
func solidColor(paint mapscene.Paint) (color.RGBA, bool) {
	s, ok := paint.(mapscene.Solid)
	if !ok {
		mapscene.Logger().Debug("ebiten: unsupported pattern paint, skipping")
		return color.RGBA{}, false
	}
	return color.RGBA{R: s.R, G: s.G, B: s.B, A: s.A}, true
}

// sourceImage resolves a replay image to a texture. Non-ebiten images are
// uploaded on the fly; label providers that render on the CPU should be
// paired with a small label cache capacity to bound re-uploads.
func sourceImage(img replay.Image) *eb.Image {
	switch v := img.(type) {
	case interface{ EbitenImage() *eb.Image }:
		return v.EbitenImage()
	case interface{ Image() image.Image }:
		return eb.NewImageFromImage(v.Image())
	case image.Image:
		return eb.NewImageFromImage(v)
	default:
		return nil
	}
}
