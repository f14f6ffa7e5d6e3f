// Package mapscene provides a deferred-rendering engine for 2D vector map
// scenes.
//
// Instead of drawing point, line, polygon and label geometry immediately,
// mapscene records an ordered instruction stream describing what to draw.
// The stream can then be replayed against an arbitrary view transform,
// repeatedly, without re-walking source geometry. A second, parallel
// instruction stream supports fast hit-testing (finding the feature under a
// point) independent of visual replay.
//
// The root package holds the small vocabulary shared by all sub-packages:
// extents, affine view transforms, paints, the geometry contract, and the
// package logger. The engine itself lives in the replay sub-package:
//
//	rec := replay.NewRecorder(extent, resolution)
//	rec.SetStrokeStyle(&replay.StrokeState{Paint: mapscene.RGB(30, 30, 30), Width: 2})
//	rec.DrawLineString(road, roadFeature)
//	rec.Finish()
//
//	rec.Replay(surface, viewTransform, 0, nil)
//
// Drawing goes through the replay.Surface contract; CPU and ebiten backends
// are provided under surface/. Geometries are anything implementing the
// Geometry interface; concrete kinds live in geom, with a GeoJSON adapter in
// geojson.
package mapscene
