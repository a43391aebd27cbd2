package roommodes

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Synthesize superposes the rigid-wall pressure shapes of activeModes on
// the engine grid and normalizes the result to [-1, 1]. Every mode has
// equal weight regardless of frequency or degeneracy, and duplicates count
// once per occurrence. An empty activeModes yields an all-zero field.
func (e *Engine) Synthesize(dims Dimensions, activeModes []Mode) (*PressureField, error) {
	return e.SynthesizeContext(context.Background(), dims, activeModes)
}

// SynthesizeContext is Synthesize with cancellation checked once per
// Y-layer.
func (e *Engine) SynthesizeContext(ctx context.Context, dims Dimensions, activeModes []Mode) (*PressureField, error) {
	indices := make([]Indices, len(activeModes))
	for i, m := range activeModes {
		indices[i] = m.Indices
	}
	return e.SynthesizeIndices(ctx, dims, indices)
}

// SynthesizeIndices is the index-only form of SynthesizeContext. Only the
// triples matter to the field shape.
func (e *Engine) SynthesizeIndices(ctx context.Context, dims Dimensions, indices []Indices) (*PressureField, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	res := e.cfg.Resolution
	field := &PressureField{
		Dims:       dims,
		Resolution: res,
		Values:     make([]float64, res.Cells()),
	}
	if len(indices) == 0 {
		return field, nil
	}

	// Canonical order makes the floating-point sum independent of the
	// caller's ordering.
	ordered := append([]Indices(nil), indices...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	cx := cosineTables(ordered, res.X, dims.Length, func(ix Indices) int { return ix.N })
	cy := cosineTables(ordered, res.Y, dims.Height, func(ix Indices) int { return ix.M })
	cz := cosineTables(ordered, res.Z, dims.Width, func(ix Indices) int { return ix.L })

	vals := field.Values
	layer := res.X * res.Z
	for iy := 0; iy < res.Y; iy++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := iy * layer
		for k := range ordered {
			yk := cy[k][iy]
			if yk == 0 {
				continue
			}
			xk := cx[k]
			zk := cz[k]
			for iz := 0; iz < res.Z; iz++ {
				w := yk * zk[iz]
				if w == 0 {
					continue
				}
				row := vals[base+iz*res.X : base+(iz+1)*res.X]
				for ix := range row {
					row[ix] += w * xk[ix]
				}
			}
		}
	}

	normalize(vals)
	return field, nil
}

// cosineTables precomputes cos(k·π·x/extent) at every sample of one axis
// for each mode, with k selected by axis.
func cosineTables(modes []Indices, samples int, extent float64, axis func(Indices) int) [][]float64 {
	tables := make([][]float64, len(modes))
	cache := make(map[int][]float64)
	for i, m := range modes {
		k := axis(m)
		if t, ok := cache[k]; ok {
			tables[i] = t
			continue
		}
		t := make([]float64, samples)
		for s := range t {
			t[s] = math.Cos(float64(k) * math.Pi * gridCoord(s, samples, extent) / extent)
		}
		cache[k] = t
		tables[i] = t
	}
	return tables
}

// normalize divides every value by the max absolute value so the extrema
// land exactly on ±1. An all-zero slice is left untouched.
func normalize(vals []float64) {
	if len(vals) == 0 {
		return
	}
	peak := floats.Norm(vals, math.Inf(1))
	if peak == 0 {
		return
	}
	for i := range vals {
		vals[i] /= peak
	}
}
