package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	encodevorbis "github.com/aperturerobotics/go-encodevorbis-wasm"
)

var errLevelsFailed = errors.New("one or more quality levels failed")

func main() {
	var (
		modulePath = flag.String("module", "EncodeVorbis.wasm", "Path to the EncodeVorbis wasm module")
		pcmPath    = flag.String("pcm", "test.pcm", "Raw 16-bit little-endian stereo input")
		outDir     = flag.String("out", ".", "Output directory")
		base       = flag.String("base", encodevorbis.DefaultArtifactBase, "Artifact name prefix")
		ext        = flag.String("ext", encodevorbis.DefaultArtifactExt, "Artifact name suffix")
		validator  = flag.String("validator", "", "External validator run on each artifact (e.g. oggz-validate)")
		minQ       = flag.Int("min", encodevorbis.MinQuality, "Lowest quality level")
		maxQ       = flag.Int("max", encodevorbis.MaxQuality, "Highest quality level")
		reserve    = flag.Uint("reserve", 0, "Guest memory pages to reserve at startup")
		cacheDir   = flag.String("cache", "", "Compilation cache directory")
		jsonLogs   = flag.Bool("json", false, "Log JSON instead of console output")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	if *minQ > *maxQ {
		fmt.Fprintln(os.Stderr, "Usage: encode-vorbis [-module file.wasm] [-pcm file.pcm] [-min q] [-max q]")
		os.Exit(1)
	}

	log, err := newLogger(*jsonLogs, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	qualities := make([]int, 0, *maxQ-*minQ+1)
	for q := *minQ; q <= *maxQ; q++ {
		qualities = append(qualities, q)
	}

	cfg := &encodevorbis.BatchConfig{
		ModulePath:    *modulePath,
		SamplePath:    *pcmPath,
		OutputDir:     *outDir,
		ArtifactBase:  *base,
		ArtifactExt:   *ext,
		Qualities:     qualities,
		ValidatorPath: *validator,
		ReservePages:  uint32(*reserve),
		CacheDir:      *cacheDir,
		Logger:        log,
	}

	if err := run(cfg); err != nil {
		if !errors.Is(err, errLevelsFailed) {
			log.Error("batch aborted", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *encodevorbis.BatchConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	// A second interrupt kills the process.
	go func() {
		<-ctx.Done()
		stop()
	}()

	report, err := encodevorbis.RunBatch(ctx, cfg)
	if report != nil {
		printSummary(os.Stdout, report)
	}
	if err != nil {
		return err
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", errLevelsFailed, len(failed), len(report.Levels))
	}
	return nil
}

func newLogger(json, verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}
