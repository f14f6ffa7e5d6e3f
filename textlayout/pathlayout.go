package textlayout

import (
	"math"

	"github.com/gogpu/mapscene/replay"
)

// LayoutOnPath lays text along the polyline in pixelCoords[begin:end),
// starting at path distance startM. Consecutive characters sharing a
// segment angle merge into one chunk; a nil result means the text does not
// fit or bends more than maxAngle between adjacent characters.
//
// Paths whose first x exceeds their last x are walked in reverse so the
// text stays upright and reads left to right.
//
// LayoutOnPath satisfies replay.LayoutFunc.
func LayoutOnPath(pixelCoords []float64, begin, end int, text string, measure replay.MeasureFunc, startM, maxAngle float64) []replay.Chunk {
	runes := []rune(text)
	if len(runes) == 0 || end-begin < 4 {
		return nil
	}
	xs, ys := pathCoords(pixelCoords, begin, end)
	if len(xs) < 2 {
		return nil
	}

	textWidth := measure(text)
	total := polylineLength(xs, ys)
	if xs[0] > xs[len(xs)-1] {
		reverseCoords(xs, ys)
		startM = total - startM - textWidth
	}
	if startM < -1e-9 || startM+textWidth > total+1e-9 {
		return nil
	}

	type chunkAcc struct {
		startM float64
		text   []rune
		angle  float64
	}

	w := pathWalker{xs: xs, ys: ys}
	var acc []chunkAcc
	var prevAngle float64
	havePrev := false
	m := startM
	for _, r := range runes {
		cw := measure(string(r))
		_, _, angle, ok := w.at(m + cw/2)
		if !ok {
			return nil
		}
		if havePrev {
			if math.Abs(normalizeAngle(angle-prevAngle)) > maxAngle {
				return nil
			}
		}
		if havePrev && angle == prevAngle {
			last := &acc[len(acc)-1]
			last.text = append(last.text, r)
		} else {
			acc = append(acc, chunkAcc{startM: m, text: []rune{r}, angle: angle})
			prevAngle = angle
			havePrev = true
		}
		m += cw
	}

	w = pathWalker{xs: xs, ys: ys}
	chunks := make([]replay.Chunk, 0, len(acc))
	for _, c := range acc {
		chunkText := string(c.text)
		chunkWidth := measure(chunkText)
		x, y, _, ok := w.at(c.startM + chunkWidth/2)
		if !ok {
			return nil
		}
		chunks = append(chunks, replay.Chunk{
			X:        x,
			Y:        y,
			AnchorX:  chunkWidth / 2,
			Rotation: c.angle,
			Text:     chunkText,
		})
	}
	return chunks
}

// pathCoords copies the polyline, dropping zero-length segments.
func pathCoords(pix []float64, begin, end int) (xs, ys []float64) {
	n := (end - begin) / 2
	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	for i := begin; i < end; i += 2 {
		x, y := pix[i], pix[i+1]
		if len(xs) > 0 && x == xs[len(xs)-1] && y == ys[len(ys)-1] {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

func reverseCoords(xs, ys []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
		ys[i], ys[j] = ys[j], ys[i]
	}
}

func polylineLength(xs, ys []float64) float64 {
	var total float64
	for i := 1; i < len(xs); i++ {
		total += math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
	}
	return total
}

// pathWalker resolves path distances to interpolated points. Queries must
// be nondecreasing; the walker only moves forward through segments.
type pathWalker struct {
	xs, ys []float64
	seg    int
	segM   float64
}

func (w *pathWalker) segLen() float64 {
	return math.Hypot(w.xs[w.seg+1]-w.xs[w.seg], w.ys[w.seg+1]-w.ys[w.seg])
}

func (w *pathWalker) at(m float64) (x, y, angle float64, ok bool) {
	for w.seg < len(w.xs)-2 && w.segM+w.segLen() < m {
		w.segM += w.segLen()
		w.seg++
	}
	l := w.segLen()
	if m > w.segM+l+1e-9 {
		return 0, 0, 0, false
	}
	t := (m - w.segM) / l
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	x1, y1 := w.xs[w.seg], w.ys[w.seg]
	x2, y2 := w.xs[w.seg+1], w.ys[w.seg+1]
	return x1 + t*(x2-x1), y1 + t*(y2-y1), math.Atan2(y2-y1, x2-x1), true
}

// normalizeAngle wraps an angle delta into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
