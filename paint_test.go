package mapscene

import "testing"

func TestRGB(t *testing.T) {
	c := RGB(10, 20, 30)
	if c.R != 10 || c.G != 20 || c.B != 30 || c.A != 255 {
		t.Errorf("RGB(10, 20, 30) = %+v", c)
	}
}

func TestRGBA(t *testing.T) {
	c := RGBA(10, 20, 30, 40)
	if c.R != 10 || c.G != 20 || c.B != 30 || c.A != 40 {
		t.Errorf("RGBA(10, 20, 30, 40) = %+v", c)
	}
}

func TestPaintEqualSolid(t *testing.T) {
	if !PaintEqual(RGB(1, 2, 3), RGB(1, 2, 3)) {
		t.Error("equal solid colors should compare equal")
	}
	if PaintEqual(RGB(1, 2, 3), RGB(1, 2, 4)) {
		t.Error("different solid colors should not compare equal")
	}
}

func TestPaintEqualPattern(t *testing.T) {
	p := &Pattern{Source: "gradient"}
	q := &Pattern{Source: "gradient"}
	if !PaintEqual(p, p) {
		t.Error("a pattern should equal itself")
	}
	// Patterns compare by handle, not by content.
	if PaintEqual(p, q) {
		t.Error("distinct pattern handles should not compare equal")
	}
	if PaintEqual(p, RGB(0, 0, 0)) {
		t.Error("pattern should not equal a solid")
	}
}

func TestPaintEqualNil(t *testing.T) {
	if !PaintEqual(nil, nil) {
		t.Error("nil paints should compare equal")
	}
	if PaintEqual(nil, RGB(0, 0, 0)) {
		t.Error("nil should not equal a solid")
	}
}

func TestLineCapString(t *testing.T) {
	cases := []struct {
		in   LineCap
		want string
	}{
		{CapButt, "butt"},
		{CapRound, "round"},
		{CapSquare, "square"},
		{LineCap(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("LineCap(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLineJoinString(t *testing.T) {
	cases := []struct {
		in   LineJoin
		want string
	}{
		{JoinMiter, "miter"},
		{JoinRound, "round"},
		{JoinBevel, "bevel"},
		{LineJoin(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("LineJoin(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}
