// Package textlayout provides the text collaborators of the replay engine:
// font-backed measurement, label-image rasterization, and along-path chunk
// layout.
package textlayout

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Face is a parsed font at a fixed pixel size. Its Measure method satisfies
// the measure contract of replay text options.
//
// The parsed font.Font is read-only and shared; each shaping call gets its
// own lightweight font.Face, and HarfbuzzShaper instances are pooled since
// they are not safe for concurrent use.
type Face struct {
	font *font.Font
	size float64
	pool sync.Pool
}

// NewFace parses TTF/OTF font data and fixes its pixel size.
func NewFace(data []byte, size float64) (*Face, error) {
	parsed, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	f := &Face{font: parsed.Font, size: size}
	f.pool.New = func() any { return &shaping.HarfbuzzShaper{} }
	return f, nil
}

// Size returns the face's pixel size.
func (f *Face) Size() float64 { return f.size }

// Measure returns the advance width of text in pixels.
func (f *Face) Measure(text string) float64 {
	if text == "" {
		return 0
	}
	out := f.shape(text)
	var advance fixed.Int26_6
	for _, g := range out.Glyphs {
		advance += g.XAdvance
	}
	return fixedToFloat(advance)
}

// Metrics returns the face's ascent and descent in pixels, both positive.
func (f *Face) Metrics() (ascent, descent float64) {
	out := f.shape("M")
	return fixedToFloat(out.LineBounds.Ascent), -fixedToFloat(out.LineBounds.Descent)
}

// shape runs HarfBuzz shaping over NFC-normalized text, so measurement and
// rasterization agree on composed characters.
func (f *Face) shape(text string) shaping.Output {
	runes := []rune(norm.NFC.String(text))
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(f.font),
		Size:      fixed.Int26_6(f.size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	shaper := f.pool.Get().(*shaping.HarfbuzzShaper)
	out := shaper.Shape(input)
	f.pool.Put(shaper)
	return out
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
