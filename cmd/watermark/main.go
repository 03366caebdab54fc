// Package main (in watermark-subfolder) provides the local command-line watermarking tool
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/intake"
	"github.com/blang/semver"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/zlog"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, afero.NewOsFs()))
}

func run(args []string, in io.Reader, out io.Writer, fs afero.Fs) int {
	flags, err := intake.ParseFlags(args, out)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(out, err)
		return 1
	}

	if flags.Version {
		v, err := semver.ParseTolerant(version)
		if err != nil {
			fmt.Fprintf(out, "Broken build version %q: %v\n", version, err)
			return 1
		}
		fmt.Fprintf(out, "watermark v%s\n", v)
		return 0
	}

	zlog.InitConsole()
	level := "error"
	if flags.Verbose {
		level = "debug"
	}
	if err := zlog.SetLevel(level); err != nil {
		fmt.Fprintln(out, "Failed to init logger:", err)
		return 1
	}

	var collector *intake.Collector
	if flags.Interactive {
		collector = intake.NewInteractive(fs, in, out, flags.Workers)
	} else {
		collector = intake.NewFromFlags(fs, flags)
	}

	job, err := collector.Collect()
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	start := time.Now()
	if err := intake.Render(fs, job); err != nil {
		zlog.Logger.Error().Err(err).Str("output", job.OutputPath).Msg("render failed")
		fmt.Fprintln(out, err)
		return 1
	}
	zlog.Logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("width", job.Base.Width()).
		Int("height", job.Base.Height()).
		Msg("image composited")

	fmt.Fprintf(out, "The watermarked image %s has been created.\n", job.OutputPath)
	return 0
}
