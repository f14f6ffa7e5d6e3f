package mapscene

import "math"

// Transform is a 2D affine transformation from world coordinates to device
// pixels. The matrix is stored in row-major order as:
//
//	| A  B  C |
//	| D  E  F |
//
// Where a point (x, y) is transformed to:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// Transform is a value type compared with ==; the replay interpreter keys
// its pixel-coordinate cache on that value equality.
type Transform struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation.
func Identity() Transform {
	return Transform{A: 1, E: 1}
}

// Compose builds the typical map view transform
//
//	translate(dx1, dy1) * scale(sx, sy) * rotate(angle) * translate(dx2, dy2)
//
// with dx1/dy1 the device-space offset (usually the viewport center),
// sx/sy the world-to-pixel scale (sy negative for y-down surfaces), angle
// the view rotation in radians, and dx2/dy2 the world-space offset (usually
// the negated view center).
func Compose(dx1, dy1, sx, sy, angle, dx2, dy2 float64) Transform {
	sin, cos := math.Sincos(angle)
	return Transform{
		A: sx * cos,
		B: -sx * sin,
		C: dx2*sx*cos - dy2*sx*sin + dx1,
		D: sy * sin,
		E: sy * cos,
		F: dx2*sy*sin + dy2*sy*cos + dy1,
	}
}

// Multiply returns the product of two transforms.
func (t Transform) Multiply(o Transform) Transform {
	return Transform{
		A: t.A*o.A + t.B*o.D,
		B: t.A*o.B + t.B*o.E,
		C: t.A*o.C + t.B*o.F + t.C,
		D: t.D*o.A + t.E*o.D,
		E: t.D*o.B + t.E*o.E,
		F: t.D*o.C + t.E*o.F + t.F,
	}
}

// ApplyXY transforms a single point.
func (t Transform) ApplyXY(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.C, t.D*x + t.E*y + t.F
}

// Apply transforms a flat run of (x, y) pairs from src into dst, reusing
// dst's backing array when it is large enough. It returns the (possibly
// reallocated) destination slice, truncated to len(src).
func (t Transform) Apply(dst, src []float64) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i := 0; i+1 < len(src); i += 2 {
		x, y := src[i], src[i+1]
		dst[i] = t.A*x + t.B*y + t.C
		dst[i+1] = t.D*x + t.E*y + t.F
	}
	return dst
}

// IsIdentity returns true if this is the identity transformation.
func (t Transform) IsIdentity() bool {
	return t.A == 1 && t.B == 0 && t.C == 0 &&
		t.D == 0 && t.E == 1 && t.F == 0
}
