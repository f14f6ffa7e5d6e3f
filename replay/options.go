package replay

// RecorderOption configures a Recorder during creation.
//
// Example:
//
//	// Plain recorder, batching enabled
//	rec := replay.NewRecorder(extent, resolution)
//
//	// Decluttered labels, shared frame index
//	rec := replay.NewRecorder(extent, resolution,
//		replay.WithDeclutterIndex(frameIndex),
//		replay.WithLabelProvider(labels))
type RecorderOption func(*Recorder)

// WithOverlaps declares that the recorded geometries may overlap each
// other. Overlapping geometries disable fill/stroke batching at replay
// time so paint order stays correct.
func WithOverlaps(overlaps bool) RecorderOption {
	return func(r *Recorder) {
		r.overlaps = overlaps
	}
}

// WithDeclutterIndex sets the spatial index used to resolve declutter
// groups. The index is shared by every recorder contributing to one frame
// and must be reset once per frame before replay begins.
func WithDeclutterIndex(index SpatialIndex) RecorderOption {
	return func(r *Recorder) {
		r.index = index
	}
}

// WithPixelRatio sets the device pixel ratio handed to custom renderers.
// The default is 1.
func WithPixelRatio(ratio float64) RecorderOption {
	return func(r *Recorder) {
		if ratio > 0 {
			r.pixelRatio = ratio
		}
	}
}

// WithLabelProvider sets the provider that rasterizes text-chunk label
// images. Text instructions replay to nothing without one.
func WithLabelProvider(p LabelProvider) RecorderOption {
	return func(r *Recorder) {
		r.labelProvider = p
	}
}

// WithLabelCacheCapacity sets the per-shard capacity of the label image
// cache. Zero or negative selects the cache package default.
func WithLabelCacheCapacity(n int) RecorderOption {
	return func(r *Recorder) {
		r.labelCapacity = n
	}
}

// WithTextLayout sets the along-path layout function used by text replay.
// The textlayout package provides an implementation.
func WithTextLayout(layout LayoutFunc) RecorderOption {
	return func(r *Recorder) {
		r.layout = layout
	}
}
