// Package dash splits polylines into dashed-on runs. Surface backends that
// have no native dash support stroke each run as a plain open polyline.
package dash

import "math"

// Split returns the dashed-on runs of a polyline. The dash array alternates
// on/off lengths; an odd-length array is logically doubled. The offset
// shifts the pattern start and may be negative. An all-zero pattern returns
// the polyline unchanged.
func Split(pts []float64, closed bool, dash []float64, offset float64) [][]float64 {
	pattern := dash
	if len(pattern)%2 != 0 {
		pattern = append(append([]float64(nil), dash...), dash...)
	}
	var total float64
	for _, l := range pattern {
		total += l
	}
	if total <= 0 {
		return [][]float64{pts}
	}

	if closed && (pts[0] != pts[len(pts)-2] || pts[1] != pts[len(pts)-1]) {
		pts = append(append([]float64(nil), pts...), pts[0], pts[1])
	}

	// Position the pattern cursor at the offset.
	pos := math.Mod(offset, total)
	if pos < 0 {
		pos += total
	}
	idx := 0
	for pos >= pattern[idx] {
		pos -= pattern[idx]
		idx = (idx + 1) % len(pattern)
	}
	on := idx%2 == 0
	remain := pattern[idx] - pos

	var runs [][]float64
	var cur []float64
	if on {
		cur = append(cur, pts[0], pts[1])
	}
	x0, y0 := pts[0], pts[1]
	for i := 2; i < len(pts); i += 2 {
		x1, y1 := pts[i], pts[i+1]
		segLen := math.Hypot(x1-x0, y1-y0)
		dist := 0.0
		for segLen-dist > remain {
			dist += remain
			t := dist / segLen
			cur = append(cur, x0+(x1-x0)*t, y0+(y1-y0)*t)
			if on {
				runs = append(runs, cur)
				cur = nil
			}
			on = !on
			idx = (idx + 1) % len(pattern)
			remain = pattern[idx]
		}
		remain -= segLen - dist
		if on {
			cur = append(cur, x1, y1)
		}
		x0, y0 = x1, y1
	}
	if on && len(cur) >= 2 {
		runs = append(runs, cur)
	}
	return runs
}
