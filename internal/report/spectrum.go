package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// pngDPI is the resolution gonum/plot renders PNGs at.
const pngDPI = 96

var typeRGBA = map[roommodes.ModeType]color.RGBA{
	roommodes.Axial:      {R: 0xe4, G: 0x57, B: 0x2e, A: 0xff},
	roommodes.Tangential: {R: 0x29, G: 0x33, B: 0x5c, A: 0xff},
	roommodes.Oblique:    {R: 0x76, G: 0xb0, B: 0x41, A: 0xff},
}

var typeGlyphs = map[roommodes.ModeType]draw.GlyphDrawer{
	roommodes.Axial:      draw.CircleGlyph{},
	roommodes.Tangential: draw.TriangleGlyph{},
	roommodes.Oblique:    draw.SquareGlyph{},
}

// WriteSpectrumPNG plots frequency against degeneracy for every mode, one
// series per mode type, as a width x height pixel PNG.
func WriteSpectrumPNG(w io.Writer, modes []roommodes.Mode, width, height int) error {
	if width < 64 || height < 64 {
		return fmt.Errorf("%w: image must be at least 64x64 pixels, got %dx%d", roommodes.ErrInvalidArgument, width, height)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mode spectrum (%d modes)", len(modes))
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Degeneracy"
	p.Add(plotter.NewGrid())

	maxFreq, maxDeg := 0.0, 1
	pts := map[roommodes.ModeType]plotter.XYs{}
	for _, m := range modes {
		pts[m.Type] = append(pts[m.Type], plotter.XY{X: m.Frequency, Y: float64(m.Degeneracy)})
		if m.Frequency > maxFreq {
			maxFreq = m.Frequency
		}
		if m.Degeneracy > maxDeg {
			maxDeg = m.Degeneracy
		}
	}
	p.X.Min, p.X.Max = 0, maxFreq*1.05+1
	p.Y.Min, p.Y.Max = 0, float64(maxDeg)+0.5

	for _, t := range roommodes.ModeTypes {
		if len(pts[t]) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts[t])
		if err != nil {
			return fmt.Errorf("build %s series: %w", t, err)
		}
		s.GlyphStyle.Color = typeRGBA[t]
		s.GlyphStyle.Shape = typeGlyphs[t]
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(string(t), s)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(vg.Length(width)/pngDPI*vg.Inch, vg.Length(height)/pngDPI*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render spectrum: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write spectrum: %w", err)
	}
	return nil
}
