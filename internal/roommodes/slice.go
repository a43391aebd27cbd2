package roommodes

import (
	"fmt"
	"math"
)

// Slice extracts the horizontal layer of field nearest requestedHeight.
func (e *Engine) Slice(field *PressureField, requestedHeight float64) (Slice, error) {
	return ExtractSlice(field, requestedHeight)
}

// ExtractSlice clamps requestedHeight to [0, room height], snaps it to the
// nearest sampled Y-layer (ties go to the lower layer) and copies that
// layer. The returned Height is the layer's true height.
func ExtractSlice(field *PressureField, requestedHeight float64) (Slice, error) {
	if err := field.validate(); err != nil {
		return Slice{}, err
	}
	if math.IsNaN(requestedHeight) {
		return Slice{}, fmt.Errorf("%w: slice height is NaN", ErrInvalidArgument)
	}

	iy := nearestLayer(requestedHeight, field.Dims.Height, field.Resolution.Y)
	res := field.Resolution
	layer := res.X * res.Z
	values := make([]float64, layer)
	copy(values, field.Values[iy*layer:(iy+1)*layer])

	return Slice{
		Width:  res.X,
		Depth:  res.Z,
		Height: field.LayerHeight(iy),
		Layer:  iy,
		Values: values,
	}, nil
}

func nearestLayer(h, extent float64, samples int) int {
	if samples <= 1 {
		return 0
	}
	h = clamp(h, 0, extent)
	pos := h / extent * float64(samples-1)
	idx := int(math.Floor(pos))
	if pos-float64(idx) > 0.5 {
		idx++
	}
	if idx > samples-1 {
		idx = samples - 1
	}
	return idx
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
