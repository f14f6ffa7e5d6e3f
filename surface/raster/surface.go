// Package raster provides a CPU surface backend rendering to an
// *image.RGBA. Paths are accumulated as flattened polylines, fills are
// rasterized with the x/image/vector scanline rasterizer, and strokes are
// expanded into fill outlines first.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/internal/dash"
	"github.com/gogpu/mapscene/replay"
)

// arcTolerance bounds the sagitta of sampled arc segments, in pixels.
const arcTolerance = 0.1

type subpath struct {
	pts    []float64
	closed bool
}

// Surface renders replay output into an RGBA image. It implements
// replay.Surface.
type Surface struct {
	img  *image.RGBA
	w, h int

	paths []subpath
	open  bool

	fill   *replay.FillState
	stroke *replay.StrokeState
}

// New creates a surface with the given dimensions.
func New(width, height int) *Surface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		w:   width,
		h:   height,
	}
}

// NewForImage creates a surface that renders into an existing image.
func NewForImage(img *image.RGBA) *Surface {
	b := img.Bounds()
	return &Surface{img: img, w: b.Dx(), h: b.Dy()}
}

// Image returns the backing image.
func (s *Surface) Image() *image.RGBA { return s.img }

// Clear fills the whole surface with a color.
func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
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
	// Angular step keeping the chord sagitta under the tolerance.
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
	mask := s.rasterize(s.paths)
	s.composite(mask, s.fill.Paint, s.fill.OriginX, s.fill.OriginY)
}

// Stroke outlines the accumulated path with the applied stroke style.
func (s *Surface) Stroke() {
	st := s.stroke
	if st == nil || st.Width <= 0 || len(s.paths) == 0 {
		return
	}
	var outline []subpath
	for _, sp := range s.paths {
		if len(sp.pts) < 4 {
			continue
		}
		if len(st.Dash) > 0 {
			for _, run := range dash.Split(sp.pts, sp.closed, st.Dash, st.DashOffset) {
				outline = append(outline, expandStroke(run, false, st)...)
			}
		} else {
			outline = append(outline, expandStroke(sp.pts, sp.closed, st)...)
		}
	}
	if len(outline) == 0 {
		return
	}
	mask := s.rasterize(outline)
	s.composite(mask, st.Paint, 0, 0)
}

// DrawImage blits an image placement, honoring the source sub-rectangle,
// scale, rotation about the placement center, and opacity.
func (s *Surface) DrawImage(img replay.Image, p replay.ImagePlacement) {
	src := sourceImage(img)
	if src == nil {
		mapscene.Logger().Debug("raster: unsupported image type, skipping placement")
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

	sin, cos := math.Sincos(p.Rotation)
	bx := p.X - p.Scale*float64(sr.Min.X-b.Min.X)
	by := p.Y - p.Scale*float64(sr.Min.Y-b.Min.Y)
	m := f64.Aff3{
		cos * p.Scale, -sin * p.Scale,
		p.CenterX + cos*(bx-p.CenterX) - sin*(by-p.CenterY),
		sin * p.Scale, cos * p.Scale,
		p.CenterY + sin*(bx-p.CenterX) + cos*(by-p.CenterY),
	}

	var opts *xdraw.Options
	if p.Opacity < 1 {
		a := uint8(math.Max(0, p.Opacity) * 0xff)
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: a})}
	}
	xdraw.ApproxBiLinear.Transform(s.img, m, src, sr, xdraw.Over, opts)
}

// rasterize renders subpaths into a coverage mask with nonzero winding, so
// reversed inner rings subtract.
func (s *Surface) rasterize(paths []subpath) *image.Alpha {
	ras := vector.NewRasterizer(s.w, s.h)
	for _, sp := range paths {
		if len(sp.pts) < 6 {
			continue
		}
		ras.MoveTo(float32(sp.pts[0]), float32(sp.pts[1]))
		for i := 2; i < len(sp.pts); i += 2 {
			ras.LineTo(float32(sp.pts[i]), float32(sp.pts[i+1]))
		}
		ras.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, s.w, s.h))
	ras.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// composite paints a coverage mask with a paint source.
func (s *Surface) composite(mask *image.Alpha, paint mapscene.Paint, originX, originY float64) {
	switch p := paint.(type) {
	case mapscene.Solid:
		src := image.NewUniform(color.RGBA{R: p.R, G: p.G, B: p.B, A: p.A})
		draw.DrawMask(s.img, s.img.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
	case *mapscene.Pattern:
		src, ok := p.Source.(image.Image)
		if !ok {
			mapscene.Logger().Debug("raster: unsupported pattern source, skipping paint")
			return
		}
		t := &tiled{src: src, ox: int(math.Round(originX)), oy: int(math.Round(originY))}
		draw.DrawMask(s.img, s.img.Bounds(), t, image.Point{}, mask, image.Point{}, draw.Over)
	}
}

func sourceImage(img replay.Image) image.Image {
	switch v := img.(type) {
	case interface{ Image() image.Image }:
		return v.Image()
	case image.Image:
		return v
	default:
		return nil
	}
}

// tiled repeats a source image over the whole plane, anchored at (ox, oy).
type tiled struct {
	src    image.Image
	ox, oy int
}

func (t *tiled) ColorModel() color.Model { return t.src.ColorModel() }

func (t *tiled) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (t *tiled) At(x, y int) color.Color {
	b := t.src.Bounds()
	return t.src.At(b.Min.X+mod(x-t.ox, b.Dx()), b.Min.Y+mod(y-t.oy, b.Dy()))
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
