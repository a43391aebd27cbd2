package roommodes

import (
	"fmt"
	"math"
)

// Hotspots selects the samples of field whose magnitude reaches threshold.
func (e *Engine) Hotspots(field *PressureField, threshold float64) (HotspotSet, error) {
	return DetectHotspots(field, threshold)
}

// DetectHotspots clamps threshold to [0, 1] and returns every sample with
// |value| >= threshold, in field storage order, with its position in
// metres. No match is a valid, empty result.
func DetectHotspots(field *PressureField, threshold float64) (HotspotSet, error) {
	if err := field.validate(); err != nil {
		return HotspotSet{}, err
	}
	if math.IsNaN(threshold) {
		return HotspotSet{}, fmt.Errorf("%w: hotspot threshold is NaN", ErrInvalidArgument)
	}
	threshold = clamp(threshold, 0, 1)

	res := field.Resolution
	set := HotspotSet{Threshold: threshold, Positions: []float64{}, Values: []float64{}}
	i := 0
	for iy := 0; iy < res.Y; iy++ {
		for iz := 0; iz < res.Z; iz++ {
			for ix := 0; ix < res.X; ix++ {
				v := field.Values[i]
				i++
				if math.Abs(v) < threshold {
					continue
				}
				x, y, z := field.Position(ix, iy, iz)
				set.Positions = append(set.Positions, x, y, z)
				set.Values = append(set.Values, v)
			}
		}
	}
	return set, nil
}
