// Command mapscene-render renders a GeoJSON feature collection to a PNG
// image: features are recorded into an instruction stream once and replayed
// onto the CPU raster surface.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"

	"github.com/alecthomas/kong"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/geojson"
	"github.com/gogpu/mapscene/replay"
	"github.com/gogpu/mapscene/surface/raster"
)

type cli struct {
	Input  string `arg:"" help:"GeoJSON feature collection to render." type:"existingfile"`
	Output string `short:"o" default:"map.png" help:"Output PNG path."`

	Width  int `default:"1024" help:"Image width in pixels."`
	Height int `default:"768" help:"Image height in pixels."`

	Extent   []float64 `sep:"," placeholder:"MINX,MINY,MAXX,MAXY" help:"Rendered extent; derived from the data when omitted."`
	Rotation float64   `default:"0" help:"View rotation in radians."`

	Background  string  `default:"#ffffff" help:"Background color."`
	Fill        string  `default:"#9fc5e8cc" help:"Polygon fill color."`
	Stroke      string  `default:"#1155cc" help:"Line and outline color."`
	StrokeWidth float64 `default:"1.5" help:"Line width in pixels."`
	PointColor  string  `default:"#cc0000" help:"Point marker color."`
	PointRadius float64 `default:"4" help:"Point marker radius in pixels."`

	Verbose bool `short:"v" help:"Enable debug logging."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("mapscene-render"),
		kong.Description("Render a GeoJSON feature collection to a PNG map image."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(c.run())
}

func (c *cli) run() error {
	if c.Verbose {
		mapscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	features, err := geojson.ReadFeatureCollection(data)
	if err != nil {
		return err
	}
	if len(features) == 0 {
		return fmt.Errorf("%s: no renderable features", c.Input)
	}

	extent, err := c.renderExtent(features)
	if err != nil {
		return err
	}
	resolution := math.Max(extent.Width()/float64(c.Width), extent.Height()/float64(c.Height))
	if resolution <= 0 {
		resolution = 1
	}

	background, err := parseColor(c.Background)
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}
	fill, err := parseColor(c.Fill)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	stroke, err := parseColor(c.Stroke)
	if err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	pointColor, err := parseColor(c.PointColor)
	if err != nil {
		return fmt.Errorf("point color: %w", err)
	}

	rec := replay.NewRecorder(extent, resolution)
	rec.SetFillStyle(&replay.FillState{Paint: fill})
	rec.SetStrokeStyle(&replay.StrokeState{
		Paint:    stroke,
		Width:    c.StrokeWidth,
		LineCap:  mapscene.CapRound,
		LineJoin: mapscene.JoinRound,
	})
	marker := discMarker(c.PointRadius, pointColor)
	mw, mh := marker.Size()
	rec.SetImageStyle(&replay.ImageOptions{
		Image:       marker,
		AnchorX:     float64(mw) / 2,
		AnchorY:     float64(mh) / 2,
		Width:       float64(mw),
		Height:      float64(mh),
		Opacity:     1,
		Scale:       1,
		SnapToPixel: true,
	})

	for _, f := range features {
		g := f.Geometry()
		switch g.Kind() {
		case mapscene.KindPoint:
			rec.DrawPoint(g, f)
		case mapscene.KindMultiPoint:
			rec.DrawMultiPoint(g, f)
		case mapscene.KindLineString:
			rec.DrawLineString(g, f)
		case mapscene.KindMultiLineString:
			rec.DrawMultiLineString(g, f)
		case mapscene.KindPolygon:
			rec.DrawPolygon(g, f)
		case mapscene.KindMultiPolygon:
			rec.DrawMultiPolygon(g, f)
		}
	}
	rec.Finish()

	surf := raster.New(c.Width, c.Height)
	surf.Clear(toRGBA(background))

	centerX := (extent.MinX + extent.MaxX) / 2
	centerY := (extent.MinY + extent.MaxY) / 2
	transform := mapscene.Compose(
		float64(c.Width)/2, float64(c.Height)/2,
		1/resolution, -1/resolution,
		c.Rotation,
		-centerX, -centerY,
	)
	rec.Replay(surf, transform, c.Rotation, nil)

	out, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, surf.Image())
}

// renderExtent returns the extent flag, or the padded union of the feature
// extents.
func (c *cli) renderExtent(features []*geojson.Feature) (mapscene.Extent, error) {
	if len(c.Extent) > 0 {
		if len(c.Extent) != 4 {
			return mapscene.Extent{}, fmt.Errorf("extent needs 4 values, got %d", len(c.Extent))
		}
		e := mapscene.NewExtent(c.Extent[0], c.Extent[1], c.Extent[2], c.Extent[3])
		if e.IsEmpty() {
			return mapscene.Extent{}, fmt.Errorf("extent %v is empty", c.Extent)
		}
		return e, nil
	}
	e := mapscene.EmptyExtent()
	for _, f := range features {
		e = e.Extend(f.Geometry().Extent())
	}
	if e.IsEmpty() {
		return mapscene.Extent{}, fmt.Errorf("features have no extent")
	}
	pad := math.Max(e.Width(), e.Height()) * 0.05
	if pad == 0 {
		pad = 1
	}
	return e.Buffer(pad), nil
}

// markerImage adapts a rasterized marker to replay.Image.
type markerImage struct {
	img *image.RGBA
}

func (m *markerImage) Size() (int, int) {
	b := m.img.Bounds()
	return b.Dx(), b.Dy()
}

func (m *markerImage) Image() image.Image { return m.img }

// discMarker renders a filled disc through the raster surface.
func discMarker(radius float64, c mapscene.Solid) *markerImage {
	if radius <= 0 {
		radius = 1
	}
	d := int(math.Ceil(2*radius)) + 2
	s := raster.New(d, d)
	s.SetFillStyle(&replay.FillState{Paint: c})
	cx := float64(d) / 2
	s.BeginPath()
	s.MoveTo(cx+radius, cx)
	s.Arc(cx, cx, radius, 0, 2*math.Pi)
	s.ClosePath()
	s.Fill()
	return &markerImage{img: s.Image()}
}

func parseColor(s string) (mapscene.Solid, error) {
	hex := s
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var r, g, b, a uint8
	a = 255
	switch len(hex) {
	case 8:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return mapscene.Solid{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return mapscene.Solid{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	default:
		return mapscene.Solid{}, fmt.Errorf("parse color %q: want #rrggbb or #rrggbbaa", s)
	}
	return mapscene.RGBA(r, g, b, a), nil
}

func toRGBA(s mapscene.Solid) color.RGBA {
	return color.RGBA{R: s.R, G: s.G, B: s.B, A: s.A}
}
