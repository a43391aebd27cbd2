package roommodes

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HotFractionThreshold is the magnitude used by FieldStats.HotFraction.
const HotFractionThreshold = 0.8

// nominalThirdOctaves are the ISO 266 nominal centre frequencies from
// 12.5 Hz (band -19 relative to 1 kHz) to 20 kHz (band +13).
var nominalThirdOctaves = []float64{
	12.5, 16, 20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160, 200, 250, 315, 400,
	500, 630, 800, 1000, 1250, 1600, 2000, 2500, 3150, 4000, 5000, 6300, 8000,
	10000, 12500, 16000, 20000,
}

const firstThirdOctaveBand = -19

// BandCount is the number of modes of each type inside one third-octave band.
type BandCount struct {
	Label      string  `json:"label"`
	Centre     float64 `json:"centre"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Axial      int     `json:"axial"`
	Tangential int     `json:"tangential"`
	Oblique    int     `json:"oblique"`
}

// Total returns the mode count of the band.
func (b BandCount) Total() int {
	return b.Axial + b.Tangential + b.Oblique
}

// ModeSummary describes the distribution of an enumerated mode list.
type ModeSummary struct {
	Total               int              `json:"total"`
	ByType              map[ModeType]int `json:"by_type"`
	DistinctFrequencies int              `json:"distinct_frequencies"`
	MeanSpacing         float64          `json:"mean_spacing"` // Hz between adjacent distinct frequencies
	MaxSpacing          float64          `json:"max_spacing"`
	Bands               []BandCount      `json:"bands"`
}

// SummarizeModes counts modes per type and per third-octave band. Modes
// are expected in GenerateModes order.
func SummarizeModes(modes []Mode) ModeSummary {
	s := ModeSummary{
		Total:  len(modes),
		ByType: map[ModeType]int{Axial: 0, Tangential: 0, Oblique: 0},
		Bands:  []BandCount{},
	}
	if len(modes) == 0 {
		return s
	}

	// Degenerate groups are contiguous, so a group boundary is where the
	// next mode starts a new group.
	var distinct []float64
	for i := 0; i < len(modes); i += modes[i].Degeneracy {
		distinct = append(distinct, modes[i].Frequency)
		if modes[i].Degeneracy < 1 {
			break
		}
	}
	s.DistinctFrequencies = len(distinct)
	if len(distinct) > 1 {
		gaps := make([]float64, len(distinct)-1)
		for i := range gaps {
			gaps[i] = distinct[i+1] - distinct[i]
		}
		s.MeanSpacing = stat.Mean(gaps, nil)
		s.MaxSpacing = floats.Max(gaps)
	}

	bands := make([]BandCount, len(nominalThirdOctaves))
	for i, nominal := range nominalThirdOctaves {
		centre := 1000 * math.Pow(2, float64(i+firstThirdOctaveBand)/3)
		bands[i] = BandCount{
			Label:  strconv.FormatFloat(nominal, 'f', -1, 64),
			Centre: centre,
			Lower:  centre / math.Pow(2, 1.0/6),
			Upper:  centre * math.Pow(2, 1.0/6),
		}
	}
	first, last := -1, -1
	for _, m := range modes {
		s.ByType[m.Type]++
		b := bandIndex(bands, m.Frequency)
		if b < 0 {
			continue
		}
		switch m.Type {
		case Axial:
			bands[b].Axial++
		case Tangential:
			bands[b].Tangential++
		case Oblique:
			bands[b].Oblique++
		}
		if first < 0 || b < first {
			first = b
		}
		if b > last {
			last = b
		}
	}
	if first >= 0 {
		s.Bands = bands[first : last+1]
	}
	return s
}

func bandIndex(bands []BandCount, f float64) int {
	for i, b := range bands {
		if f >= b.Lower && f < b.Upper {
			return i
		}
	}
	return -1
}

// FieldSummary holds descriptive statistics of a pressure field.
type FieldSummary struct {
	Samples     int     `json:"samples"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	RMS         float64 `json:"rms"`
	StdDev      float64 `json:"std_dev"`
	HotFraction float64 `json:"hot_fraction"` // share of samples with |v| >= HotFractionThreshold
}

// FieldStats summarizes the values of field.
func FieldStats(field *PressureField) FieldSummary {
	vals := field.Values
	s := FieldSummary{Samples: len(vals)}
	if len(vals) == 0 {
		return s
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Mean = stat.Mean(vals, nil)
	s.RMS = math.Sqrt(floats.Dot(vals, vals) / float64(len(vals)))
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	hot := 0
	for _, v := range vals {
		if math.Abs(v) >= HotFractionThreshold {
			hot++
		}
	}
	s.HotFraction = float64(hot) / float64(len(vals))
	return s
}
