package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/testutil"
)

func TestFieldKey_OrderInsensitive(t *testing.T) {
	t.Parallel()

	a := []roommodes.Indices{{N: 1}, {M: 1}, {N: 1, L: 2}}
	b := []roommodes.Indices{{N: 1, L: 2}, {N: 1}, {M: 1}}
	assert.Equal(t, fieldKey(testutil.ReferenceRoom, a), fieldKey(testutil.ReferenceRoom, b))

	// Duplicates count, so a repeated mode is a different field.
	dup := append([]roommodes.Indices{{N: 1}}, a...)
	assert.NotEqual(t, fieldKey(testutil.ReferenceRoom, a), fieldKey(testutil.ReferenceRoom, dup))

	other := testutil.ReferenceRoom
	other.Height = 3
	assert.NotEqual(t, fieldKey(testutil.ReferenceRoom, a), fieldKey(other, a))
}

func TestFieldCache_HitsAndMisses(t *testing.T) {
	t.Parallel()

	engine := roommodes.MustNewEngine(roommodes.DefaultConfig().WithResolution(5))
	cache := NewFieldCache(engine, 4)
	ctx := context.Background()

	first, err := cache.SynthesizeIndices(ctx, testutil.ReferenceRoom, []roommodes.Indices{{N: 1}, {M: 1}})
	require.NoError(t, err)
	second, err := cache.SynthesizeIndices(ctx, testutil.ReferenceRoom, []roommodes.Indices{{M: 1}, {N: 1}})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), cache.Hits())
	assert.Equal(t, uint64(1), cache.Misses())
	assert.Equal(t, 1, cache.Len())
}

func TestFieldCache_Eviction(t *testing.T) {
	t.Parallel()

	engine := roommodes.MustNewEngine(roommodes.DefaultConfig().WithResolution(3))
	cache := NewFieldCache(engine, 2)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		_, err := cache.SynthesizeIndices(ctx, testutil.ReferenceRoom, []roommodes.Indices{{N: n}})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())

	// The oldest entry was evicted and is synthesized again.
	_, err := cache.SynthesizeIndices(ctx, testutil.ReferenceRoom, []roommodes.Indices{{N: 1}})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cache.Misses())
	assert.Equal(t, uint64(0), cache.Hits())
}

func TestFieldCache_Disabled(t *testing.T) {
	t.Parallel()

	engine := roommodes.MustNewEngine(roommodes.DefaultConfig().WithResolution(3))
	cache := NewFieldCache(engine, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := cache.SynthesizeIndices(ctx, testutil.ReferenceRoom, []roommodes.Indices{{N: 1}})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, uint64(2), cache.Misses())
}

func TestFieldCache_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	engine := roommodes.MustNewEngine(roommodes.DefaultConfig().WithResolution(3))
	cache := NewFieldCache(engine, 4)

	_, err := cache.SynthesizeIndices(context.Background(), roommodes.Dimensions{Length: -1, Height: 1, Width: 1}, []roommodes.Indices{{N: 1}})
	require.ErrorIs(t, err, roommodes.ErrInvalidArgument)
	assert.Equal(t, 0, cache.Len())
}
