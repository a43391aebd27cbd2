package api

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// FieldCache memoizes synthesized pressure fields. The key is the room
// dimensions plus the sorted multiset of mode indices, so two selections
// holding the same modes in a different order share an entry. Cached
// fields are shared between callers and must not be modified.
type FieldCache struct {
	engine *roommodes.Engine
	lru    *lru.Cache[string, *roommodes.PressureField]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewFieldCache returns a cache holding up to size fields. A size of zero
// disables caching and every call goes to the engine.
func NewFieldCache(engine *roommodes.Engine, size int) *FieldCache {
	c := &FieldCache{engine: engine}
	if size > 0 {
		l, err := lru.New[string, *roommodes.PressureField](size)
		if err == nil {
			c.lru = l
		}
	}
	return c
}

// SynthesizeIndices returns the cached field for (dims, indices) or
// synthesizes and stores it.
func (c *FieldCache) SynthesizeIndices(ctx context.Context, dims roommodes.Dimensions, indices []roommodes.Indices) (*roommodes.PressureField, error) {
	if c.lru == nil {
		c.misses.Add(1)
		return c.engine.SynthesizeIndices(ctx, dims, indices)
	}

	key := fieldKey(dims, indices)
	if f, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return f, nil
	}
	c.misses.Add(1)

	f, err := c.engine.SynthesizeIndices(ctx, dims, indices)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, f)
	return f, nil
}

// Len returns the number of cached fields.
func (c *FieldCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Hits returns how many lookups were served from the cache.
func (c *FieldCache) Hits() uint64 { return c.hits.Load() }

// Misses returns how many lookups went to the engine.
func (c *FieldCache) Misses() uint64 { return c.misses.Load() }

func fieldKey(dims roommodes.Dimensions, indices []roommodes.Indices) string {
	sorted := append([]roommodes.Indices(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	var b strings.Builder
	for _, v := range []float64{dims.Length, dims.Height, dims.Width} {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('x')
	}
	for _, ix := range sorted {
		b.WriteByte('|')
		b.WriteString(ix.ID())
	}
	return b.String()
}
