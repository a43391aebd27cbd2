package roommodes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimensions are the interior extents of the room in metres.
type Dimensions struct {
	Length float64 `json:"length"` // X axis
	Height float64 `json:"height"` // Y axis (vertical)
	Width  float64 `json:"width"`  // Z axis
}

// Validate reports an error wrapping ErrInvalidArgument unless every
// extent is finite and strictly positive.
func (d Dimensions) Validate() error {
	for _, axis := range []struct {
		name string
		v    float64
	}{{"length", d.Length}, {"height", d.Height}, {"width", d.Width}} {
		if math.IsNaN(axis.v) || math.IsInf(axis.v, 0) || axis.v <= 0 {
			return fmt.Errorf("%w: %s must be a positive finite number of metres, got %v", ErrInvalidArgument, axis.name, axis.v)
		}
	}
	return nil
}

// Volume returns the room volume in cubic metres.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Height * d.Width
}

// ModeType classifies a mode by how many of its indices are nonzero.
type ModeType string

const (
	Axial      ModeType = "axial"
	Tangential ModeType = "tangential"
	Oblique    ModeType = "oblique"

	// AllTypes is the filter value that matches every mode type.
	AllTypes ModeType = "all"
)

// ModeTypes lists the concrete mode types in order of participating wall pairs.
var ModeTypes = []ModeType{Axial, Tangential, Oblique}

// ParseModeType accepts a concrete type name or "all".
func ParseModeType(s string) (ModeType, error) {
	switch t := ModeType(strings.ToLower(strings.TrimSpace(s))); t {
	case Axial, Tangential, Oblique, AllTypes:
		return t, nil
	case "":
		return AllTypes, nil
	default:
		return "", fmt.Errorf("%w: unknown mode type %q", ErrInvalidArgument, s)
	}
}

// Indices is the (n, m, l) triple of a mode.
type Indices struct {
	N int `json:"n"`
	M int `json:"m"`
	L int `json:"l"`
}

// IsZero reports whether all three indices are zero.
func (ix Indices) IsZero() bool {
	return ix.N == 0 && ix.M == 0 && ix.L == 0
}

// NonZero counts the nonzero indices.
func (ix Indices) NonZero() int {
	c := 0
	for _, v := range [3]int{ix.N, ix.M, ix.L} {
		if v != 0 {
			c++
		}
	}
	return c
}

// Less orders indices lexicographically by (n, m, l).
func (ix Indices) Less(o Indices) bool {
	if ix.N != o.N {
		return ix.N < o.N
	}
	if ix.M != o.M {
		return ix.M < o.M
	}
	return ix.L < o.L
}

// ID is the stable identifier of the triple, "n-m-l".
func (ix Indices) ID() string {
	return strconv.Itoa(ix.N) + "-" + strconv.Itoa(ix.M) + "-" + strconv.Itoa(ix.L)
}

// Type classifies the triple. The zero triple has no type.
func (ix Indices) Type() ModeType {
	switch ix.NonZero() {
	case 1:
		return Axial
	case 2:
		return Tangential
	case 3:
		return Oblique
	default:
		return ""
	}
}

// ParseModeID parses an identifier produced by Indices.ID.
func ParseModeID(id string) (Indices, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return Indices{}, fmt.Errorf("%w: mode id %q is not of the form n-m-l", ErrInvalidArgument, id)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Indices{}, fmt.Errorf("%w: mode id %q has an invalid index %q", ErrInvalidArgument, id, p)
		}
		v[i] = n
	}
	ix := Indices{N: v[0], M: v[1], L: v[2]}
	if ix.IsZero() {
		return Indices{}, fmt.Errorf("%w: mode id %q is the zero triple", ErrInvalidArgument, id)
	}
	return ix, nil
}

// Mode is one enumerated resonance of the room.
type Mode struct {
	ID         string   `json:"id"`
	Indices    Indices  `json:"indices"`
	Frequency  float64  `json:"frequency"` // Hz
	Type       ModeType `json:"type"`
	Degeneracy int      `json:"degeneracy"`
}

// Resolution is the number of grid samples along each axis.
type Resolution struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Cells returns the total number of grid samples.
func (r Resolution) Cells() int {
	return r.X * r.Y * r.Z
}

func (r Resolution) validate() error {
	if r.X < 1 || r.Y < 1 || r.Z < 1 {
		return fmt.Errorf("%w: grid resolution must be at least 1 along every axis, got %dx%dx%d", ErrInvalidArgument, r.X, r.Y, r.Z)
	}
	return nil
}

// PressureField is the normalized superposition of a set of modes sampled
// on a regular grid. Values are stored X fastest, then Z, then Y, so each
// horizontal layer is a contiguous X*Z block.
type PressureField struct {
	Dims       Dimensions `json:"dims"`
	Resolution Resolution `json:"resolution"`
	Values     []float64  `json:"values"`
}

// Index returns the storage offset of grid sample (ix, iy, iz).
func (f *PressureField) Index(ix, iy, iz int) int {
	return (iy*f.Resolution.Z+iz)*f.Resolution.X + ix
}

// At returns the sample at (ix, iy, iz).
func (f *PressureField) At(ix, iy, iz int) float64 {
	return f.Values[f.Index(ix, iy, iz)]
}

// Position converts a grid index to room coordinates in metres.
func (f *PressureField) Position(ix, iy, iz int) (x, y, z float64) {
	return gridCoord(ix, f.Resolution.X, f.Dims.Length),
		gridCoord(iy, f.Resolution.Y, f.Dims.Height),
		gridCoord(iz, f.Resolution.Z, f.Dims.Width)
}

// LayerHeight returns the height in metres of Y-layer iy.
func (f *PressureField) LayerHeight(iy int) float64 {
	return gridCoord(iy, f.Resolution.Y, f.Dims.Height)
}

func (f *PressureField) validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil pressure field", ErrInvalidArgument)
	}
	if err := f.Dims.Validate(); err != nil {
		return err
	}
	if err := f.Resolution.validate(); err != nil {
		return err
	}
	if len(f.Values) != f.Resolution.Cells() {
		return fmt.Errorf("%w: field holds %d values, resolution needs %d", ErrInvalidArgument, len(f.Values), f.Resolution.Cells())
	}
	return nil
}

// Slice is a horizontal cut of a PressureField at one sampled Y-layer.
// Values are row-major: Depth rows (Z) of Width samples (X).
type Slice struct {
	Width  int       `json:"width"`
	Depth  int       `json:"depth"`
	Height float64   `json:"height"`
	Layer  int       `json:"layer"`
	Values []float64 `json:"values"`
}

// HotspotSet is the sparse set of grid samples at or above a magnitude
// threshold. Positions holds one (x, y, z) triple in metres per value.
type HotspotSet struct {
	Threshold float64   `json:"threshold"`
	Positions []float64 `json:"positions"`
	Values    []float64 `json:"values"`
}

// Len returns the number of hotspots.
func (h HotspotSet) Len() int {
	return len(h.Values)
}

// gridCoord maps sample i of n onto [0, extent], both walls included.
func gridCoord(i, n int, extent float64) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) * extent / float64(n-1)
}
