package roommodes

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceRoom is the 7.4 × 2.9 × 5.2 m listening room used across tests.
var referenceRoom = Dimensions{Length: 7.4, Height: 2.9, Width: 5.2}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestGenerateModes_ReferenceRoom(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	modes, err := e.GenerateModes(referenceRoom, 300)
	require.NoError(t, err)
	require.NotEmpty(t, modes)

	first := modes[0]
	assert.Equal(t, "1-0-0", first.ID)
	assert.Equal(t, Axial, first.Type)
	assert.InDelta(t, 343.0/(2*7.4), first.Frequency, 1e-9)
	assert.InDelta(t, 23.18, first.Frequency, 0.01)

	for _, m := range modes {
		assert.LessOrEqual(t, m.Frequency, 300.0, "mode %s above ceiling", m.ID)
		want := (343.0 / 2) * math.Sqrt(
			math.Pow(float64(m.Indices.N)/7.4, 2)+
				math.Pow(float64(m.Indices.M)/2.9, 2)+
				math.Pow(float64(m.Indices.L)/5.2, 2))
		assert.InDelta(t, want, m.Frequency, 1e-9, "mode %s", m.ID)
		assert.False(t, m.Indices.IsZero())
		assert.Equal(t, m.Indices.ID(), m.ID)
	}
}

func TestGenerateModes_Classification(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	modes, err := e.GenerateModes(referenceRoom, 200)
	require.NoError(t, err)

	seen := map[ModeType]bool{}
	for _, m := range modes {
		nonzero := 0
		for _, v := range []int{m.Indices.N, m.Indices.M, m.Indices.L} {
			if v != 0 {
				nonzero++
			}
		}
		switch nonzero {
		case 1:
			assert.Equal(t, Axial, m.Type, m.ID)
		case 2:
			assert.Equal(t, Tangential, m.Type, m.ID)
		case 3:
			assert.Equal(t, Oblique, m.Type, m.ID)
		default:
			t.Fatalf("unexpected nonzero count %d for %s", nonzero, m.ID)
		}
		seen[m.Type] = true
	}
	assert.True(t, seen[Axial] && seen[Tangential] && seen[Oblique], "expected all three types below 200 Hz")
}

func TestGenerateModes_SortedWithLexicographicTies(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	cube := Dimensions{Length: 2, Height: 2, Width: 2}
	modes, err := e.GenerateModes(cube, 100)
	require.NoError(t, err)

	ids := make([]string, len(modes))
	for i, m := range modes {
		ids[i] = m.ID
		assert.Equal(t, 3, m.Degeneracy, m.ID)
	}
	if diff := cmp.Diff([]string{"0-0-1", "0-1-0", "1-0-0"}, ids); diff != "" {
		t.Errorf("mode order mismatch (-want +got):\n%s", diff)
	}

	modes, err = e.GenerateModes(referenceRoom, 400)
	require.NoError(t, err)
	for i := 1; i < len(modes); i++ {
		prev, cur := modes[i-1], modes[i]
		if prev.Frequency == cur.Frequency {
			assert.True(t, prev.Indices.Less(cur.Indices), "%s before %s", prev.ID, cur.ID)
		} else {
			assert.Less(t, prev.Frequency, cur.Frequency)
		}
	}
}

func TestGenerateModes_DegeneracySymmetric(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	// Two equal horizontal extents produce paired modes.
	room := Dimensions{Length: 4, Height: 3, Width: 4}
	modes, err := e.GenerateModes(room, 250)
	require.NoError(t, err)

	for _, a := range modes {
		group := 0
		for _, b := range modes {
			if coincident(a.Frequency, b.Frequency, DefaultFrequencyTolerance) {
				group++
				assert.Equal(t, a.Degeneracy, b.Degeneracy, "%s and %s share a frequency", a.ID, b.ID)
			}
		}
		assert.Equal(t, group, a.Degeneracy, a.ID)
	}

	byID := map[string]Mode{}
	for _, m := range modes {
		byID[m.ID] = m
	}
	assert.Equal(t, 2, byID["1-0-0"].Degeneracy)
	assert.Equal(t, 2, byID["0-0-1"].Degeneracy)
	assert.Equal(t, 1, byID["0-1-0"].Degeneracy)
}

func TestDegeneracyToleranceRegression(t *testing.T) {
	t.Parallel()

	modes := []Mode{
		{ID: "a", Frequency: 100},
		{ID: "b", Frequency: 100 * (1 + 5e-7)},
		{ID: "c", Frequency: 100 * (1 + 5e-5)},
		{ID: "d", Frequency: 200},
	}
	assignDegeneracy(modes, DefaultFrequencyTolerance)

	got := []int{modes[0].Degeneracy, modes[1].Degeneracy, modes[2].Degeneracy, modes[3].Degeneracy}
	assert.Equal(t, []int{2, 2, 1, 1}, got)
	assert.Equal(t, 1e-6, DefaultFrequencyTolerance)
}

func TestGenerateModes_Deterministic(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	a, err := e.GenerateModes(referenceRoom, 250)
	require.NoError(t, err)
	b, err := e.GenerateModes(referenceRoom, 250)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated generation differs (-first +second):\n%s", diff)
	}
}

func TestGenerateModes_EmptyBelowFirstMode(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	modes, err := e.GenerateModes(referenceRoom, 20)
	require.NoError(t, err)
	assert.Empty(t, modes)

	modes, err = e.GenerateModes(referenceRoom, 1)
	require.NoError(t, err)
	assert.Empty(t, modes)
}

func TestGenerateModes_InvalidInput(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	cases := []struct {
		name string
		dims Dimensions
		fmax float64
	}{
		{"zero length", Dimensions{Length: 0, Height: 2.9, Width: 5.2}, 300},
		{"negative height", Dimensions{Length: 7.4, Height: -1, Width: 5.2}, 300},
		{"nan width", Dimensions{Length: 7.4, Height: 2.9, Width: math.NaN()}, 300},
		{"infinite length", Dimensions{Length: math.Inf(1), Height: 2.9, Width: 5.2}, 300},
		{"zero frequency", referenceRoom, 0},
		{"negative frequency", referenceRoom, -10},
		{"nan frequency", referenceRoom, math.NaN()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.GenerateModes(tc.dims, tc.fmax)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestGenerateModes_SearchSpaceLimit(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.MaxEnumeration = 100
	e := newTestEngine(t, cfg)

	_, err := e.GenerateModes(referenceRoom, 300)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchSpaceTooLarge)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	modes, err := e.GenerateModes(referenceRoom, 60)
	require.NoError(t, err)
	assert.NotEmpty(t, modes)
}

func TestGenerateModes_AxisBoundBeyondIntRange(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	for _, dims := range []Dimensions{
		{Length: 1e300, Height: 1, Width: 1},
		{Length: 1, Height: 1e300, Width: 1e300},
		{Length: math.MaxFloat64, Height: math.MaxFloat64, Width: 1},
	} {
		modes, err := e.GenerateModes(dims, 300)
		assert.ErrorIs(t, err, ErrSearchSpaceTooLarge, "dims %+v", dims)
		assert.Nil(t, modes)
	}
}

func TestGenerateModes_CancelledContext(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.GenerateModesContext(ctx, referenceRoom, 300)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateModes_SpeedOfSoundBoundPerEngine(t *testing.T) {
	t.Parallel()
	standard := newTestEngine(t, DefaultConfig())
	helium := newTestEngine(t, DefaultConfig().WithSpeedOfSound(972))

	a, err := standard.GenerateModes(referenceRoom, 100)
	require.NoError(t, err)
	b, err := helium.GenerateModes(referenceRoom, 100)
	require.NoError(t, err)

	assert.Greater(t, len(a), len(b))
	assert.InDelta(t, 972.0/(2*7.4), b[0].Frequency, 1e-9)
}

func TestParseModeID(t *testing.T) {
	t.Parallel()

	ix, err := ParseModeID("3-0-12")
	require.NoError(t, err)
	assert.Equal(t, Indices{N: 3, M: 0, L: 12}, ix)
	assert.Equal(t, "3-0-12", ix.ID())

	for _, bad := range []string{"", "1-2", "1-2-3-4", "a-0-0", "-1-0-0", "0-0-0", "1--1-0"} {
		_, err := ParseModeID(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, "id %q", bad)
	}
}

func TestParseModeType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ModeType{
		"axial": Axial, "Tangential": Tangential, " oblique ": Oblique, "all": AllTypes, "": AllTypes,
	} {
		got, err := ParseModeType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseModeType("diagonal")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	bad := []Config{
		DefaultConfig().WithSpeedOfSound(0),
		DefaultConfig().WithSpeedOfSound(math.Inf(1)),
		DefaultConfig().WithResolution(0),
		func() Config { c := DefaultConfig(); c.FrequencyTolerance = -1; return c }(),
		func() Config { c := DefaultConfig(); c.MaxEnumeration = 0; return c }(),
	}
	for i, cfg := range bad {
		_, err := NewEngine(cfg)
		assert.Error(t, err, "config %d", i)
	}
	assert.Panics(t, func() { MustNewEngine(DefaultConfig().WithResolution(-2)) })
}
