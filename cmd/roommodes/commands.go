package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/report"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/security"
	"github.com/banshee-data/roommodes/internal/session"
	"github.com/banshee-data/roommodes/internal/units"
	"github.com/banshee-data/roommodes/internal/version"
)

func runModes(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("modes", flag.ContinueOnError)
	room := addRoomFlags(fs)
	modeType := fs.String("type", "all", "Mode type to list: axial, tangential, oblique or all")
	asJSON := fs.Bool("json", false, "Write JSON instead of a table")
	summary := fs.Bool("summary", false, "Print per-type and per-band counts after the list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := roommodes.ParseModeType(*modeType)
	if err != nil {
		return err
	}
	_, _, modes, err := room.modes()
	if err != nil {
		return err
	}
	visible := roommodes.FilterByType(modes, t)

	if *asJSON {
		out := map[string]interface{}{"count": len(visible), "modes": visible}
		if *summary {
			out["summary"] = roommodes.SummarizeModes(modes)
		}
		return writeJSON(stdout, out)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tFREQUENCY (Hz)\tDEGENERACY")
	for _, m := range visible {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", m.ID, m.Type, m.Frequency, m.Degeneracy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if *summary {
		s := roommodes.SummarizeModes(modes)
		fmt.Fprintf(stdout, "\n%d modes (%d axial, %d tangential, %d oblique), %d distinct frequencies\n",
			s.Total, s.ByType[roommodes.Axial], s.ByType[roommodes.Tangential], s.ByType[roommodes.Oblique], s.DistinctFrequencies)
		fmt.Fprintf(stdout, "mean spacing %.2f Hz, max spacing %.2f Hz\n", s.MeanSpacing, s.MaxSpacing)
		tw = tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BAND\tAXIAL\tTANGENTIAL\tOBLIQUE")
		for _, b := range s.Bands {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", b.Label, b.Axial, b.Tangential, b.Oblique)
		}
		return tw.Flush()
	}
	return nil
}

func runSlice(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("slice", flag.ContinueOnError)
	room := addRoomFlags(fs)
	modeList := fs.String("modes", "", "Comma-separated mode ids (default: the lowest six modes)")
	sliceHeight := fs.Float64("slice-height", session.DefaultDefaults().SliceHeight, "Slice height in -units")
	if err := fs.Parse(args); err != nil {
		return err
	}

	engine, dims, modes, err := room.modes()
	if err != nil {
		return err
	}
	active, err := selectModes(modes, *modeList, session.DefaultDefaults().SelectionCount)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		fmt.Fprintln(stdout, "no active modes: no field computed")
		return nil
	}
	field, err := engine.Synthesize(dims, active)
	if err != nil {
		return err
	}
	slice, err := engine.Slice(field, units.ToMeters(*sliceHeight, room.units))
	if err != nil {
		return err
	}
	return writeJSON(stdout, slice)
}

func runHotspots(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hotspots", flag.ContinueOnError)
	room := addRoomFlags(fs)
	modeList := fs.String("modes", "", "Comma-separated mode ids (default: the lowest six modes)")
	threshold := fs.Float64("threshold", session.DefaultDefaults().Threshold, "Magnitude threshold in [0, 1]")
	if err := fs.Parse(args); err != nil {
		return err
	}

	engine, dims, modes, err := room.modes()
	if err != nil {
		return err
	}
	active, err := selectModes(modes, *modeList, session.DefaultDefaults().SelectionCount)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		fmt.Fprintln(stdout, "no active modes: no field computed")
		return nil
	}
	field, err := engine.Synthesize(dims, active)
	if err != nil {
		return err
	}
	set, err := engine.Hotspots(field, *threshold)
	if err != nil {
		return err
	}
	// Positions are reported in the same units as the room flags.
	for i, p := range set.Positions {
		set.Positions[i] = units.FromMeters(p, room.units)
	}
	return writeJSON(stdout, map[string]interface{}{
		"units":     room.units,
		"count":     set.Len(),
		"threshold": set.Threshold,
		"positions": set.Positions,
		"values":    set.Values,
	})
}

func runReport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	room := addRoomFlags(fs)
	out := fs.String("out", "", "Output file (.html for the chart, .png for the spectrum)")
	format := fs.String("format", "", "html or png (default: from the -out extension)")
	imgWidth := fs.Int("img-width", 800, "PNG width in pixels")
	imgHeight := fs.Int("img-height", 400, "PNG height in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("-out is required")
	}
	if err := security.ValidateReportPath(*out); err != nil {
		return err
	}
	if *format == "" {
		*format = "html"
		if strings.EqualFold(filepath.Ext(*out), ".png") {
			*format = "png"
		}
	}
	if *format != "html" && *format != "png" {
		return fmt.Errorf("invalid -format %q (want html or png)", *format)
	}

	_, dims, modes, err := room.modes()
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if *format == "png" {
		err = report.WriteSpectrumPNG(f, modes, *imgWidth, *imgHeight)
	} else {
		err = report.WriteModeChart(f, dims, modes)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(stdout, "wrote %s report of %d modes to %s\n", *format, len(modes), *out)
	return nil
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", "roommodes.db", "Path to the sqlite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout, os.Stdin)
}

func runVersion(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Write JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, version.Current())
	}
	fmt.Fprintln(stdout, version.String())
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
