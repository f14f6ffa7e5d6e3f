// Package geojson adapts GeoJSON feature collections to the mapscene
// geometry contract, so decoded features can be recorded directly.
package geojson

import (
	"fmt"

	gj "github.com/paulmach/go.geojson"

	"github.com/gogpu/mapscene"
	"github.com/gogpu/mapscene/geom"
)

// Feature is a decoded GeoJSON feature. It implements mapscene.Feature and
// keeps the source properties for styling and hit-test results.
type Feature struct {
	// Properties are the feature's GeoJSON properties.
	Properties map[string]interface{}

	// ID is the feature's GeoJSON id, if any.
	ID interface{}

	geom mapscene.Geometry
}

// Geometry returns the feature's geometry.
func (f *Feature) Geometry() mapscene.Geometry { return f.geom }

// ReadFeatureCollection decodes a GeoJSON FeatureCollection. Features with
// unsupported geometry kinds (geometry collections, missing geometries) are
// skipped with a debug log; everything else becomes a geom value ready for
// recording.
func ReadFeatureCollection(data []byte) ([]*Feature, error) {
	fc, err := gj.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]*Feature, 0, len(fc.Features))
	for _, src := range fc.Features {
		g := convertGeometry(src.Geometry)
		if g == nil {
			mapscene.Logger().Debug("geojson: skipping unsupported geometry",
				"id", src.ID)
			continue
		}
		features = append(features, &Feature{
			Properties: src.Properties,
			ID:         src.ID,
			geom:       g,
		})
	}
	return features, nil
}

func convertGeometry(g *gj.Geometry) mapscene.Geometry {
	switch {
	case g == nil:
		return nil
	case g.IsPoint():
		if len(g.Point) < 2 {
			return nil
		}
		return geom.NewPoint(g.Point[0], g.Point[1])
	case g.IsMultiPoint():
		return geom.NewMultiPoint(g.MultiPoint)
	case g.IsLineString():
		return geom.NewLineString(g.LineString)
	case g.IsMultiLineString():
		return geom.NewMultiLineString(g.MultiLineString)
	case g.IsPolygon():
		return geom.NewPolygon(g.Polygon)
	case g.IsMultiPolygon():
		return geom.NewMultiPolygon(g.MultiPolygon)
	default:
		return nil
	}
}
