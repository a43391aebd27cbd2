// Package report renders mode tables as an interactive HTML chart and a
// static PNG spectrum.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// AssetsHost serves the echarts JavaScript referenced by rendered pages.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var typeColors = map[roommodes.ModeType]string{
	roommodes.Axial:      "#e4572e",
	roommodes.Tangential: "#29335c",
	roommodes.Oblique:    "#76b041",
}

// WriteModeChart renders an HTML page with the mode count of every
// third-octave band, stacked by mode type.
func WriteModeChart(w io.Writer, dims roommodes.Dimensions, modes []roommodes.Mode) error {
	summary := roommodes.SummarizeModes(modes)

	labels := make([]string, len(summary.Bands))
	series := map[roommodes.ModeType][]opts.BarData{}
	for i, b := range summary.Bands {
		labels[i] = b.Label
		series[roommodes.Axial] = append(series[roommodes.Axial], opts.BarData{Value: b.Axial})
		series[roommodes.Tangential] = append(series[roommodes.Tangential], opts.BarData{Value: b.Tangential})
		series[roommodes.Oblique] = append(series[roommodes.Oblique], opts.BarData{Value: b.Oblique})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "Room modes",
			Width:      "100%",
			Height:     "600px",
			AssetsHost: AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Modes per third-octave band",
			Subtitle: fmt.Sprintf("%.2f × %.2f × %.2f m, %d modes (%d axial, %d tangential, %d oblique)",
				dims.Length, dims.Width, dims.Height, summary.Total,
				summary.ByType[roommodes.Axial], summary.ByType[roommodes.Tangential], summary.ByType[roommodes.Oblique]),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Band (Hz)", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Modes"}),
	)
	bar.SetXAxis(labels)
	for _, t := range roommodes.ModeTypes {
		bar.AddSeries(string(t), series[t],
			charts.WithBarChartOpts(opts.BarChart{Stack: "modes"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: typeColors[t]}),
		)
	}

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render mode chart: %w", err)
	}
	return nil
}
