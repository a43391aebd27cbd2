package roommodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeModes_Cube(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	modes, err := e.GenerateModes(Dimensions{Length: 2, Height: 2, Width: 2}, 130)
	require.NoError(t, err)

	s := SummarizeModes(modes)
	assert.Equal(t, len(modes), s.Total)
	assert.Equal(t, 3, s.ByType[Axial])
	assert.Equal(t, 3, s.ByType[Tangential])
	assert.Equal(t, 0, s.ByType[Oblique])
	assert.Equal(t, 2, s.DistinctFrequencies)
	assert.InDelta(t, 85.75*(1.4142135623730951-1), s.MeanSpacing, 1e-9)

	require.NotEmpty(t, s.Bands)
	assert.Equal(t, "80", s.Bands[0].Label)
	assert.Equal(t, 3, s.Bands[0].Axial)
	total := 0
	for _, b := range s.Bands {
		total += b.Total()
	}
	assert.Equal(t, s.Total, total)
}

func TestSummarizeModes_Empty(t *testing.T) {
	t.Parallel()

	s := SummarizeModes(nil)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.Bands)
	assert.Equal(t, 0.0, s.MeanSpacing)
}

func TestFieldStats(t *testing.T) {
	t.Parallel()
	field := testField(t, Resolution{X: 3, Y: 1, Z: 1}, Indices{N: 1})

	s := FieldStats(field)
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, -1.0, s.Min)
	assert.Equal(t, 1.0, s.Max)
	assert.InDelta(t, 0, s.Mean, 1e-12)
	assert.InDelta(t, 0.816496580927726, s.RMS, 1e-9)
	assert.InDelta(t, 1.0, s.StdDev, 1e-9)
	assert.InDelta(t, 2.0/3, s.HotFraction, 1e-12)
}

func TestFilterAndResolve(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	modes, err := e.GenerateModes(referenceRoom, 120)
	require.NoError(t, err)

	axial := FilterByType(modes, Axial)
	require.NotEmpty(t, axial)
	for _, m := range axial {
		assert.Equal(t, Axial, m.Type)
	}
	assert.Equal(t, modes, FilterByType(modes, AllTypes))

	ids := DefaultSelection(modes, 6)
	require.Len(t, ids, 6)
	assert.Equal(t, "1-0-0", ids[0])

	// Unknown ids are dropped and mode order wins over selection order.
	resolved := ResolveModes(modes, []string{ids[3], "99-99-99", ids[0]})
	require.Len(t, resolved, 2)
	assert.Equal(t, ids[0], resolved[0].ID)
	assert.Equal(t, ids[3], resolved[1].ID)

	assert.Nil(t, ResolveModes(modes, nil))
	assert.Len(t, DefaultSelection(modes, 10_000), len(modes))
	assert.Empty(t, DefaultSelection(modes, 0))
	assert.Equal(t, []Indices{modes[0].Indices}, IndicesOf(modes[:1]))
}
