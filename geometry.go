package mapscene

// GeometryKind identifies the shape class of a geometry.
type GeometryKind uint8

// Geometry kinds.
const (
	KindPoint GeometryKind = iota
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindCircle
)

// String returns a human-readable name for the geometry kind.
func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindPolygon:
		return "Polygon"
	case KindMultiPoint:
		return "MultiPoint"
	case KindMultiLineString:
		return "MultiLineString"
	case KindMultiPolygon:
		return "MultiPolygon"
	case KindCircle:
		return "Circle"
	default:
		return "Unknown"
	}
}

// Geometry is the contract the recorder needs from a geometry: a kind tag,
// flattened coordinates with their stride, sub-path end offsets into the
// flat coordinates, and a bounding extent. Concrete kinds live in the geom
// package; any type satisfying this interface can be recorded.
type Geometry interface {
	Kind() GeometryKind
	FlatCoordinates() []float64
	Stride() int
	Ends() []int
	Extent() Extent
}

// OrientedGeometry is implemented by polygonal kinds that can provide
// orientation-normalized coordinates (exterior rings counter-clockwise,
// interior rings clockwise). The recorder prefers these for fill
// correctness under the non-zero winding rule.
type OrientedGeometry interface {
	Geometry
	OrientedFlatCoordinates() []float64
}

// MultiGeometry is implemented by multi-polygon kinds whose sub-paths nest
// two levels deep (polygons of rings).
type MultiGeometry interface {
	Geometry
	Endss() [][]int
}

// Feature associates a geometry with application identity. Features are the
// unit of skipping, hit-testing and declutter grouping; implementations
// must be comparable (pointer types are) so they can key skip sets.
type Feature interface {
	Geometry() Geometry
}
