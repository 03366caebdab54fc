package intake

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

// Flags mirrors the command line of the watermark tool.
type Flags struct {
	Image       string
	Watermark   string
	Output      string
	Percent     string
	Position    string
	X, Y        int
	Alpha       bool
	Color       string
	Workers     int
	Interactive bool
	Version     bool
	Verbose     bool

	coordsSet bool
}

// ParseFlags parses args (without the program name). Without any flag the tool falls back to the dialog.
func ParseFlags(args []string, errOut io.Writer) (*Flags, error) {
	f := &Flags{}
	set := pflag.NewFlagSet("watermark", pflag.ContinueOnError)
	set.SetOutput(errOut)

	set.StringVarP(&f.Image, "image", "i", "", "base image file (jpg, png, bmp)")
	set.StringVarP(&f.Watermark, "watermark", "w", "", "watermark image file")
	set.StringVarP(&f.Output, "out", "o", "", "output file, .jpg or .png")
	set.StringVarP(&f.Percent, "percent", "p", "", "watermark weight in percent, 0-100")
	set.StringVar(&f.Position, "position", "", "position method: single or grid")
	set.IntVar(&f.X, "x", 0, "left offset for single position")
	set.IntVar(&f.Y, "y", 0, "top offset for single position")
	set.BoolVar(&f.Alpha, "alpha", false, "skip fully transparent watermark pixels (watermarks with alpha channel only)")
	set.StringVar(&f.Color, "color", "", `transparency color key "R G B" (watermarks without alpha channel only)`)
	set.IntVar(&f.Workers, "workers", 0, "compositing goroutines, 0 means GOMAXPROCS")
	set.BoolVar(&f.Interactive, "interactive", false, "ask for every parameter")
	set.BoolVar(&f.Version, "version", false, "print version and exit")
	set.BoolVarP(&f.Verbose, "verbose", "v", false, "debug logging")

	if err := set.Parse(args); err != nil {
		return nil, err
	}

	f.coordsSet = set.Changed("x") || set.Changed("y")
	if set.NFlag() == 0 {
		f.Interactive = true
	}
	return f, nil
}

var flagNames = map[step]string{
	stepUseAlpha: "alpha",
	stepSetColor: "color",
}

// flagAnswers replays flag values as dialog answers and remembers which steps were reached.
type flagAnswers struct {
	values map[step]string
	asked  map[step]bool
}

func (f *Flags) answers() *flagAnswers {
	values := map[step]string{
		stepImage:     f.Image,
		stepWatermark: f.Watermark,
		stepPercent:   f.Percent,
		stepPosition:  f.Position,
		stepOutput:    f.Output,
	}
	if f.Alpha {
		values[stepUseAlpha] = "yes"
	}
	if f.Color != "" {
		values[stepSetColor] = "yes"
		values[stepColor] = f.Color
	}
	if f.coordsSet {
		values[stepCoords] = fmt.Sprintf("%d %d", f.X, f.Y)
	}
	return &flagAnswers{values: values, asked: make(map[step]bool)}
}

func (a *flagAnswers) answer(s step, _ string) (string, error) {
	a.asked[s] = true
	return a.values[s], nil
}

// unused rejects transparency flags the chosen watermark never asked for.
func (a *flagAnswers) unused() error {
	for _, s := range []step{stepUseAlpha, stepSetColor} {
		if _, given := a.values[s]; given && !a.asked[s] {
			return invalid("The flag --%s doesn't apply to this watermark.", flagNames[s])
		}
	}
	return nil
}

// NewFromFlags answers the dialog from already parsed flags.
func NewFromFlags(fs afero.Fs, f *Flags) *Collector {
	return newCollector(fs, f.answers(), f.Workers)
}
