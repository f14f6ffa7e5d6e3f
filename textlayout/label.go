package textlayout

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/vector"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/replay"
)

// LabelImage is a rasterized text label. It implements replay.Image; the
// raster surface backend draws it through the Image accessor.
type LabelImage struct {
	rgba *image.RGBA
}

// Size returns the label dimensions in pixels.
func (im *LabelImage) Size() (int, int) {
	b := im.rgba.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the label pixels.
func (im *LabelImage) Image() image.Image { return im.rgba }

type strokeStyle struct {
	color color.RGBA
	width float64
}

// LabelRenderer rasterizes label images for text chunks. It implements
// replay.LabelProvider: faces are registered under text keys, colors under
// fill keys and halo styles under stroke keys, matching the keys recorded
// into text instructions.
//
// Results are memoized by the replay label cache, so rendering cost is paid
// once per distinct (chars, keys) tuple.
type LabelRenderer struct {
	faces   map[string]*Face
	fills   map[string]color.RGBA
	strokes map[string]strokeStyle
}

// NewLabelRenderer returns an empty renderer.
func NewLabelRenderer() *LabelRenderer {
	return &LabelRenderer{
		faces:   make(map[string]*Face),
		fills:   make(map[string]color.RGBA),
		strokes: make(map[string]strokeStyle),
	}
}

// AddFace registers a face under a text key.
func (r *LabelRenderer) AddFace(key string, f *Face) {
	r.faces[key] = f
}

// AddFill registers a fill color under a fill key.
func (r *LabelRenderer) AddFill(key string, c color.RGBA) {
	r.fills[key] = c
}

// AddStroke registers a halo color and width under a stroke key.
func (r *LabelRenderer) AddStroke(key string, c color.RGBA, width float64) {
	r.strokes[key] = strokeStyle{color: c, width: width}
}

// Label rasterizes one chunk rendition. An empty fill key renders a
// halo-only image padded by the stroke width on every side; an empty stroke
// key renders a tight fill-only image. Unknown keys produce nil, dropping
// the chunk.
func (r *LabelRenderer) Label(chars, textKey, fillKey, strokeKey string) replay.Image {
	face := r.faces[textKey]
	if face == nil {
		mapscene.Logger().Debug("label: unknown text key", "key", textKey)
		return nil
	}
	var fill color.RGBA
	hasFill := false
	if fillKey != "" {
		if fill, hasFill = r.fills[fillKey]; !hasFill {
			mapscene.Logger().Debug("label: unknown fill key", "key", fillKey)
		}
	}
	var stroke strokeStyle
	hasStroke := false
	if strokeKey != "" {
		if stroke, hasStroke = r.strokes[strokeKey]; !hasStroke {
			mapscene.Logger().Debug("label: unknown stroke key", "key", strokeKey)
		}
	}
	if !hasFill && !hasStroke {
		return nil
	}

	out := face.shape(chars)
	var advance float64
	for _, g := range out.Glyphs {
		advance += fixedToFloat(g.XAdvance)
	}
	ascent, descent := fixedToFloat(out.LineBounds.Ascent), -fixedToFloat(out.LineBounds.Descent)

	pad := 0
	if hasStroke {
		pad = int(math.Ceil(stroke.width))
	}
	w := int(math.Ceil(advance)) + 2*pad
	h := int(math.Ceil(ascent+descent)) + 2*pad
	if w <= 0 || h <= 0 {
		return nil
	}

	mask := rasterizeGlyphs(face, out, w, h, float64(pad), float64(pad)+ascent)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if hasStroke {
		paintHalo(dst, mask, stroke)
	}
	if hasFill {
		draw.DrawMask(dst, mask.Bounds(), image.NewUniform(fill), image.Point{}, mask, image.Point{}, draw.Over)
	}
	return &LabelImage{rgba: dst}
}

// rasterizeGlyphs renders shaped glyph outlines into an alpha mask. Outline
// coordinates are in font units, y-up; they are scaled to pixels and
// flipped around the baseline.
func rasterizeGlyphs(face *Face, out shaping.Output, w, h int, penX, baseline float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	ras := vector.NewRasterizer(w, h)
	gface := font.NewFace(face.font)
	scale := face.size / float64(face.font.Upem())

	for _, g := range out.Glyphs {
		data := gface.GlyphData(g.GlyphID)
		outline, ok := data.(font.GlyphOutline)
		if !ok {
			penX += fixedToFloat(g.XAdvance)
			continue
		}
		ox := penX + fixedToFloat(g.XOffset)
		oy := baseline - fixedToFloat(g.YOffset)
		for _, seg := range outline.Segments {
			px := func(p int) (float32, float32) {
				return float32(ox + scale*float64(seg.Args[p].X)),
					float32(oy - scale*float64(seg.Args[p].Y))
			}
			switch seg.Op {
			case opentype.SegmentOpMoveTo:
				x, y := px(0)
				ras.MoveTo(x, y)
			case opentype.SegmentOpLineTo:
				x, y := px(0)
				ras.LineTo(x, y)
			case opentype.SegmentOpQuadTo:
				cx, cy := px(0)
				x, y := px(1)
				ras.QuadTo(cx, cy, x, y)
			case opentype.SegmentOpCubeTo:
				c1x, c1y := px(0)
				c2x, c2y := px(1)
				x, y := px(2)
				ras.CubeTo(c1x, c1y, c2x, c2y, x, y)
			}
		}
		penX += fixedToFloat(g.XAdvance)
	}
	ras.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// paintHalo stamps the glyph mask at every integer offset within the
// stroke radius, producing a round halo behind the fill rendition.
func paintHalo(dst *image.RGBA, mask *image.Alpha, stroke strokeStyle) {
	radius := int(math.Ceil(stroke.width))
	src := image.NewUniform(stroke.color)
	r2 := stroke.width * stroke.width
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if float64(dx*dx+dy*dy) > r2 {
				continue
			}
			draw.DrawMask(dst, mask.Bounds().Add(image.Pt(dx, dy)), src, image.Point{}, mask, image.Point{}, draw.Over)
		}
	}
}
