package replay

import (
	"strings"

	"github.com/gogpu/mapscene/cache"
)

// labelCache memoizes rendered label images by their character/style tuple.
// Text replay asks for the same chunk renditions frame after frame, so the
// provider — which shapes and rasterizes glyphs — only runs on first sight
// of a tuple.
type labelCache struct {
	provider LabelProvider
	images   *cache.ShardedCache[string, Image]
}

func newLabelCache(provider LabelProvider, capacity int) *labelCache {
	return &labelCache{
		provider: provider,
		images:   cache.NewSharded[string, Image](capacity, cache.StringHasher),
	}
}

// Label returns the cached image for the tuple, rendering it on a miss.
func (c *labelCache) Label(chars, textKey, fillKey, strokeKey string) Image {
	key := labelKey(chars, textKey, fillKey, strokeKey)
	return c.images.GetOrCreate(key, func() Image {
		return c.provider.Label(chars, textKey, fillKey, strokeKey)
	})
}

// labelKey joins the tuple with a separator that cannot appear in style
// keys. Chars go last so an embedded separator cannot alias another tuple.
func labelKey(chars, textKey, fillKey, strokeKey string) string {
	var sb strings.Builder
	sb.Grow(len(textKey) + len(fillKey) + len(strokeKey) + len(chars) + 3)
	sb.WriteString(textKey)
	sb.WriteByte('\x1f')
	sb.WriteString(fillKey)
	sb.WriteByte('\x1f')
	sb.WriteString(strokeKey)
	sb.WriteByte('\x1f')
	sb.WriteString(chars)
	return sb.String()
}
