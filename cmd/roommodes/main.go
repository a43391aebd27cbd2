// Command roommodes computes the acoustic modes of rectangular rooms and
// serves them over HTTP and gRPC.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/banshee-data/roommodes/internal/config"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/session"
	"github.com/banshee-data/roommodes/internal/units"
)

// subcommand runs with the arguments following its name.
type subcommand struct {
	summary string
	run     func(args []string, stdout io.Writer) error
}

var subcommands = map[string]subcommand{
	"serve":    {"run the HTTP and gRPC servers", runServe},
	"modes":    {"list the modes of a room", runModes},
	"slice":    {"print a horizontal slice of the pressure field", runSlice},
	"hotspots": {"print the high-pressure regions of the field", runHotspots},
	"report":   {"write an HTML chart or PNG spectrum of the modes", runReport},
	"migrate":  {"manage the database schema", runMigrate},
	"version":  {"print build information", runVersion},
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("roommodes: ")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		if len(args) == 0 {
			return fmt.Errorf("missing subcommand")
		}
		return nil
	}
	cmd, ok := subcommands[args[0]]
	if !ok {
		printUsage(stdout)
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
	return cmd.run(args[1:], stdout)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: roommodes <subcommand> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	names := make([]string, 0, len(subcommands))
	for name := range subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, subcommands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'roommodes <subcommand> -h' for the flags of a subcommand.")
}

// roomFlags are the room description flags shared by the compute
// subcommands.
type roomFlags struct {
	length, height, width float64
	maxFrequency          float64
	units                 string
	configPath            string
}

func addRoomFlags(fs *flag.FlagSet) *roomFlags {
	d := session.DefaultDefaults()
	f := &roomFlags{}
	fs.Float64Var(&f.length, "length", d.Dims.Length, "Room length (X axis) in -units")
	fs.Float64Var(&f.height, "height", d.Dims.Height, "Room height (Y axis) in -units")
	fs.Float64Var(&f.width, "width", d.Dims.Width, "Room width (Z axis) in -units")
	fs.Float64Var(&f.maxFrequency, "max-frequency", d.MaxFrequency, "Highest mode frequency in Hz")
	fs.StringVar(&f.units, "units", units.Meters, "Length units: "+units.GetValidUnitsString())
	fs.StringVar(&f.configPath, "config", "", "Engine config JSON file (defaults built in)")
	return f
}

func (f *roomFlags) dims() (roommodes.Dimensions, error) {
	if !units.IsValid(f.units) {
		return roommodes.Dimensions{}, fmt.Errorf("invalid -units %q (want one of %s)", f.units, units.GetValidUnitsString())
	}
	return roommodes.Dimensions{
		Length: units.ToMeters(f.length, f.units),
		Height: units.ToMeters(f.height, f.units),
		Width:  units.ToMeters(f.width, f.units),
	}, nil
}

// engine loads the engine config named by -config and binds it.
func (f *roomFlags) engine() (*config.EngineConfig, *roommodes.Engine, error) {
	cfg := config.EmptyEngineConfig()
	if f.configPath != "" {
		loaded, err := config.LoadEngineConfig(f.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	engine, err := roommodes.NewEngine(cfg.ToCoreConfig())
	if err != nil {
		return nil, nil, err
	}
	return cfg, engine, nil
}

// modes enumerates the modes of the room described by the flags.
func (f *roomFlags) modes() (*roommodes.Engine, roommodes.Dimensions, []roommodes.Mode, error) {
	dims, err := f.dims()
	if err != nil {
		return nil, dims, nil, err
	}
	cfg, engine, err := f.engine()
	if err != nil {
		return nil, dims, nil, err
	}
	if limit := cfg.GetMaxFrequencyLimit(); f.maxFrequency > limit {
		return nil, dims, nil, fmt.Errorf("-max-frequency %v exceeds the limit of %v Hz", f.maxFrequency, limit)
	}
	modes, err := engine.GenerateModes(dims, f.maxFrequency)
	if err != nil {
		return nil, dims, nil, err
	}
	return engine, dims, modes, nil
}

// selectModes resolves a comma-separated -modes list against modes. An
// empty list selects the lowest n modes.
func selectModes(modes []roommodes.Mode, list string, n int) ([]roommodes.Mode, error) {
	if strings.TrimSpace(list) == "" {
		return roommodes.ResolveModes(modes, roommodes.DefaultSelection(modes, n)), nil
	}
	var ids []string
	for _, id := range strings.Split(list, ",") {
		id = strings.TrimSpace(id)
		if _, err := roommodes.ParseModeID(id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return roommodes.ResolveModes(modes, ids), nil
}
