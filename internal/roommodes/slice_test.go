package roommodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testField(t *testing.T, res Resolution, modes ...Indices) *PressureField {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Resolution = res
	e := newTestEngine(t, cfg)
	active := make([]Mode, len(modes))
	for i, ix := range modes {
		active[i] = Mode{Indices: ix}
	}
	field, err := e.Synthesize(referenceRoom, active)
	require.NoError(t, err)
	return field
}

func TestExtractSlice_ExactLayerIsVerbatim(t *testing.T) {
	t.Parallel()
	res := Resolution{X: 6, Y: 7, Z: 5}
	field := testField(t, res, Indices{N: 1, M: 1}, Indices{M: 2, L: 1})

	for iy := 0; iy < res.Y; iy++ {
		s, err := ExtractSlice(field, field.LayerHeight(iy))
		require.NoError(t, err)
		assert.Equal(t, iy, s.Layer)
		assert.Equal(t, field.LayerHeight(iy), s.Height)
		assert.Equal(t, res.X, s.Width)
		assert.Equal(t, res.Z, s.Depth)
		assert.Equal(t, field.Values[iy*res.X*res.Z:(iy+1)*res.X*res.Z], s.Values)
	}
}

func TestExtractSlice_Clamping(t *testing.T) {
	t.Parallel()
	field := testField(t, Resolution{X: 5, Y: 5, Z: 5}, Indices{M: 1})

	top, err := ExtractSlice(field, referenceRoom.Height)
	require.NoError(t, err)
	above, err := ExtractSlice(field, referenceRoom.Height+5)
	require.NoError(t, err)
	assert.Equal(t, top, above)
	assert.Equal(t, 4, above.Layer)
	assert.InDelta(t, referenceRoom.Height, above.Height, 1e-12)

	floor, err := ExtractSlice(field, 0)
	require.NoError(t, err)
	below, err := ExtractSlice(field, -3)
	require.NoError(t, err)
	assert.Equal(t, floor, below)

	inf, err := ExtractSlice(field, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, top, inf)
}

func TestExtractSlice_NearestLayerTiesGoLow(t *testing.T) {
	t.Parallel()
	field := testField(t, Resolution{X: 3, Y: 3, Z: 3}, Indices{M: 1})
	half := referenceRoom.Height / 2 // layers at 0, H/2, H

	s, err := ExtractSlice(field, half/2)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Layer)

	s, err = ExtractSlice(field, half/2+1e-6)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Layer)

	s, err = ExtractSlice(field, half+half/2-1e-6)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Layer)

	s, err = ExtractSlice(field, half*0.9)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Layer)
	assert.Equal(t, field.LayerHeight(1), s.Height)
}

func TestExtractSlice_HeightIsAlwaysSampled(t *testing.T) {
	t.Parallel()
	res := Resolution{X: 4, Y: 11, Z: 4}
	field := testField(t, res, Indices{N: 1, M: 3})

	layers := map[float64]bool{}
	for iy := 0; iy < res.Y; iy++ {
		layers[field.LayerHeight(iy)] = true
	}
	for h := -0.5; h <= referenceRoom.Height+0.5; h += 0.037 {
		s, err := ExtractSlice(field, h)
		require.NoError(t, err)
		assert.True(t, layers[s.Height], "height %v not a sampled layer (requested %v)", s.Height, h)
	}
}

func TestExtractSlice_SingleLayerGrid(t *testing.T) {
	t.Parallel()
	field := testField(t, Resolution{X: 4, Y: 1, Z: 4}, Indices{N: 1})

	s, err := ExtractSlice(field, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Layer)
	assert.Equal(t, 0.0, s.Height)
}

func TestExtractSlice_InvalidInput(t *testing.T) {
	t.Parallel()
	field := testField(t, Resolution{X: 3, Y: 3, Z: 3}, Indices{N: 1})

	_, err := ExtractSlice(field, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ExtractSlice(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	broken := *field
	broken.Values = broken.Values[:5]
	_, err = ExtractSlice(&broken, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExtractSlice_DoesNotAliasField(t *testing.T) {
	t.Parallel()
	field := testField(t, Resolution{X: 3, Y: 3, Z: 3}, Indices{N: 1})
	before := append([]float64(nil), field.Values...)

	e := newTestEngine(t, DefaultConfig())
	s, err := e.Slice(field, 0)
	require.NoError(t, err)
	for i := range s.Values {
		s.Values[i] = 42
	}
	assert.Equal(t, before, field.Values)
}
