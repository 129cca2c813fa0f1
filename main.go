package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/term"

	"pipemeter/global"
	"pipemeter/internal/config"
	"pipemeter/internal/meter"
)

const exitInvalidArgs = 2

func main() {
	os.Exit(run(context.Background(), os.Args[1:], meter.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}))
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Version: %s\n", global.Version)
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	_, _ = fmt.Fprintf(w, "Usage: %s [options]\n", os.Args[0])
	_, _ = fmt.Fprintln(w, "Print out (to stderr) the transfer speed and total throughput of stdin.")
	_, _ = fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func setupLogger(w io.Writer, level string) {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: noColor})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}

	zerolog.SetGlobalLevel(lvl)
}

// run is the whole program, it returns the process exit code.
func run(ctx context.Context, args []string, stdio meter.Stdio, opts ...meter.Option) int {
	fs := pflag.NewFlagSet("pipemeter", pflag.ContinueOnError)
	fs.SetOutput(stdio.Err)

	var version = fs.BoolP("version", "v", false, "Print version number")
	var configFilePath = fs.String("config-file", "", "path to TOML config file, flags and PIPEMETER_* env override it")

	var profiling = fs.Bool("profile", false, "enable profiling for CPU and Memory")
	var profileCpu = fs.Bool("profile-cpu", false, "enable CPU profiling only")
	var profileMem = fs.Bool("profile-memory", false, "enable Memory profiling only")

	config.RegisterFlags(fs)

	// this avoids 'pflag: help requested' error when calling for help message.
	if slices.Contains(args, "--help") || slices.Contains(args, "-h") {
		usage(stdio.Err, fs)
		return 0
	}

	if err := fs.Parse(args); err != nil {
		return exitInvalidArgs
	}

	if *version {
		printVersion(stdio.Err)
		return 0
	}

	cfg, err := config.Load(*configFilePath, fs)
	if err != nil {
		_, _ = fmt.Fprintln(stdio.Err, err)
		return exitInvalidArgs
	}

	setupLogger(stdio.Err, cfg.Log.Level)

	if *profileCpu || *profileMem || *profiling {
		var opt = make([]func(*profile.Profile), 0, 4)
		opt = append(opt, profile.Quiet, profile.NoShutdownHook)
		if *profileCpu || *profiling {
			opt = append(opt, profile.CPUProfile)
		}
		if *profileMem || *profiling {
			opt = append(opt, profile.MemProfile)
		}
		defer profile.Start(opt...).Stop()
	}

	log.Debug().Str("version", global.Version).Interface("config", cfg).Msg("start")

	m := meter.New(cfg, stdio, opts...)
	m.HandleInterrupts()
	m.Run(ctx)

	return 0
}
