package roommodes

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// ModeFrequency returns the resonance frequency in Hz of triple ix in a
// room of dimensions d, for speed of sound c.
func ModeFrequency(d Dimensions, ix Indices, c float64) float64 {
	a := float64(ix.N) / d.Length
	b := float64(ix.M) / d.Height
	g := float64(ix.L) / d.Width
	return c / 2 * math.Sqrt(a*a+b*b+g*g)
}

// maxIndex is the largest index along an axis of length l whose axial
// mode can still lie at or below maxFrequency. It stays a float so that
// bounds beyond the int range are caught before conversion.
func maxIndex(l, maxFrequency, c float64) float64 {
	return math.Floor(2 * l * maxFrequency / c)
}

// GenerateModes enumerates every mode of the room up to maxFrequency,
// sorted ascending by frequency with ties broken by (n, m, l).
func (e *Engine) GenerateModes(dims Dimensions, maxFrequency float64) ([]Mode, error) {
	return e.GenerateModesContext(context.Background(), dims, maxFrequency)
}

// GenerateModesContext is GenerateModes with cancellation checked once per
// outer index.
func (e *Engine) GenerateModesContext(ctx context.Context, dims Dimensions, maxFrequency float64) ([]Mode, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(maxFrequency) || math.IsInf(maxFrequency, 0) || maxFrequency <= 0 {
		return nil, fmt.Errorf("%w: maxFrequency must be positive and finite, got %v", ErrInvalidArgument, maxFrequency)
	}

	c := e.cfg.SpeedOfSound
	bounds := [3]float64{
		maxIndex(dims.Length, maxFrequency, c),
		maxIndex(dims.Height, maxFrequency, c),
		maxIndex(dims.Width, maxFrequency, c),
	}
	limit := float64(e.cfg.MaxEnumeration)
	candidates := 1.0
	for _, b := range bounds {
		if math.IsNaN(b) || b+1 > limit {
			candidates = math.Inf(1)
			break
		}
		candidates *= b + 1
	}
	if candidates > limit {
		return nil, fmt.Errorf("%w: %g candidate triples for %.1f Hz exceeds limit %d",
			ErrSearchSpaceTooLarge, candidates, maxFrequency, e.cfg.MaxEnumeration)
	}
	nMax, mMax, lMax := int(bounds[0]), int(bounds[1]), int(bounds[2])

	var modes []Mode
	for n := 0; n <= nMax; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for m := 0; m <= mMax; m++ {
			for l := 0; l <= lMax; l++ {
				ix := Indices{N: n, M: m, L: l}
				if ix.IsZero() {
					continue
				}
				f := ModeFrequency(dims, ix, c)
				if f > maxFrequency {
					continue
				}
				modes = append(modes, Mode{
					ID:         ix.ID(),
					Indices:    ix,
					Frequency:  f,
					Type:       ix.Type(),
					Degeneracy: 1,
				})
			}
		}
	}

	sort.Slice(modes, func(i, j int) bool {
		if modes[i].Frequency != modes[j].Frequency {
			return modes[i].Frequency < modes[j].Frequency
		}
		return modes[i].Indices.Less(modes[j].Indices)
	})
	assignDegeneracy(modes, e.cfg.FrequencyTolerance)
	return modes, nil
}

// assignDegeneracy groups frequency-sorted modes whose neighbours lie
// within the relative tolerance and stamps each member with the group size.
func assignDegeneracy(modes []Mode, tol float64) {
	start := 0
	for i := 1; i <= len(modes); i++ {
		if i < len(modes) && coincident(modes[i-1].Frequency, modes[i].Frequency, tol) {
			continue
		}
		size := i - start
		for j := start; j < i; j++ {
			modes[j].Degeneracy = size
		}
		start = i
	}
}

func coincident(f1, f2, tol float64) bool {
	hi := math.Max(f1, f2)
	if hi == 0 {
		return true
	}
	return math.Abs(f1-f2)/hi < tol
}
