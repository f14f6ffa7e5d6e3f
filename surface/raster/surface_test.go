package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/replay"
)

var red = &replay.FillState{Paint: mapscene.RGB(255, 0, 0)}

func alphaAt(s *Surface, x, y int) uint8 {
	return s.Image().RGBAAt(x, y).A
}

func rect(s *Surface, x0, y0, x1, y1 float64) {
	s.MoveTo(x0, y0)
	s.LineTo(x1, y0)
	s.LineTo(x1, y1)
	s.LineTo(x0, y1)
	s.ClosePath()
}

func TestFillSquare(t *testing.T) {
	s := New(20, 20)
	s.SetFillStyle(red)
	s.BeginPath()
	rect(s, 5, 5, 15, 15)
	s.Fill()

	if got := s.Image().RGBAAt(10, 10); got.R != 255 || got.A != 255 {
		t.Errorf("expected solid red at center, got %v", got)
	}
	if a := alphaAt(s, 2, 2); a != 0 {
		t.Errorf("expected transparent outside the square, got alpha %d", a)
	}
}

func TestFillRingWithHole(t *testing.T) {
	s := New(20, 20)
	s.SetFillStyle(red)
	s.BeginPath()
	rect(s, 2, 2, 18, 18)
	// Hole ring wound the other way.
	s.MoveTo(6, 6)
	s.LineTo(6, 14)
	s.LineTo(14, 14)
	s.LineTo(14, 6)
	s.ClosePath()
	s.Fill()

	if a := alphaAt(s, 10, 10); a != 0 {
		t.Errorf("expected hole at center, got alpha %d", a)
	}
	if a := alphaAt(s, 4, 10); a == 0 {
		t.Error("expected ring area to be filled")
	}
}

func TestStrokeLine(t *testing.T) {
	s := New(20, 20)
	s.SetStrokeStyle(&replay.StrokeState{Paint: mapscene.RGB(0, 0, 255), Width: 4})
	s.BeginPath()
	s.MoveTo(2, 10)
	s.LineTo(18, 10)
	s.Stroke()

	if a := alphaAt(s, 10, 10); a == 0 {
		t.Error("expected stroke coverage on the line")
	}
	if a := alphaAt(s, 10, 16); a != 0 {
		t.Errorf("expected no coverage away from the line, got alpha %d", a)
	}
}

func TestStrokeWithoutStyle(t *testing.T) {
	s := New(20, 20)
	s.BeginPath()
	s.MoveTo(2, 10)
	s.LineTo(18, 10)
	s.Stroke()

	if a := alphaAt(s, 10, 10); a != 0 {
		t.Errorf("expected stroke without style to paint nothing, got alpha %d", a)
	}
}

func TestDashedStrokeHasGaps(t *testing.T) {
	s := New(24, 10)
	s.SetStrokeStyle(&replay.StrokeState{
		Paint: mapscene.RGB(0, 0, 0),
		Width: 2,
		Dash:  []float64{4, 4},
	})
	s.BeginPath()
	s.MoveTo(0, 5)
	s.LineTo(24, 5)
	s.Stroke()

	if a := alphaAt(s, 2, 5); a == 0 {
		t.Error("expected coverage inside the first dash")
	}
	if a := alphaAt(s, 6, 5); a != 0 {
		t.Errorf("expected gap after the first dash, got alpha %d", a)
	}
	if a := alphaAt(s, 10, 5); a == 0 {
		t.Error("expected coverage inside the second dash")
	}
}

func TestArcFillsCircle(t *testing.T) {
	s := New(20, 20)
	s.SetFillStyle(red)
	s.BeginPath()
	s.MoveTo(15, 10)
	s.Arc(10, 10, 5, 0, 6.283185307179586)
	s.ClosePath()
	s.Fill()

	if a := alphaAt(s, 10, 10); a == 0 {
		t.Error("expected filled circle center")
	}
	if a := alphaAt(s, 1, 1); a != 0 {
		t.Errorf("expected transparent corner, got alpha %d", a)
	}
}

type rgbaImage struct {
	img *image.RGBA
}

func (r *rgbaImage) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *rgbaImage) Image() image.Image { return r.img }

func solidImage(w, h int, c color.RGBA) *rgbaImage {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return &rgbaImage{img: img}
}

func TestDrawImagePlacement(t *testing.T) {
	s := New(20, 20)
	src := solidImage(4, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	s.DrawImage(src, replay.ImagePlacement{
		SrcW: 4, SrcH: 4,
		X: 8, Y: 8,
		Scale:   1,
		Opacity: 1,
	})

	if a := alphaAt(s, 9, 9); a == 0 {
		t.Error("expected image pixels at the placement")
	}
	if a := alphaAt(s, 3, 3); a != 0 {
		t.Errorf("expected no pixels outside the placement, got alpha %d", a)
	}
}

func TestDrawImageOpacity(t *testing.T) {
	s := New(20, 20)
	src := solidImage(4, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	s.DrawImage(src, replay.ImagePlacement{
		SrcW: 4, SrcH: 4,
		X: 8, Y: 8,
		Scale:   1,
		Opacity: 0.5,
	})

	a := alphaAt(s, 9, 9)
	if a < 100 || a > 156 {
		t.Errorf("expected roughly half opacity, got alpha %d", a)
	}
}

func TestPatternFill(t *testing.T) {
	// 2x1 checker: left pixel opaque, right transparent.
	tile := image.NewRGBA(image.Rect(0, 0, 2, 1))
	tile.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	s := New(8, 2)
	s.SetFillStyle(&replay.FillState{Paint: &mapscene.Pattern{Source: tile}})
	s.BeginPath()
	rect(s, 0, 0, 8, 2)
	s.Fill()

	if a := alphaAt(s, 0, 0); a == 0 {
		t.Error("expected pattern pixel at even column")
	}
	if a := alphaAt(s, 1, 0); a != 0 {
		t.Errorf("expected transparent pattern pixel at odd column, got alpha %d", a)
	}
}

func TestClear(t *testing.T) {
	s := New(4, 4)
	s.Clear(color.RGBA{R: 1, G: 2, B: 3, A: 255})
	if got := s.Image().RGBAAt(2, 2); got.R != 1 || got.G != 2 || got.B != 3 {
		t.Errorf("expected cleared background, got %v", got)
	}
}
