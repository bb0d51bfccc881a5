package encodevorbis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// LevelResult is the outcome of one quality level.
type LevelResult struct {
	// Err is the encode or write failure, nil on success.
	Err error
	// ValidationErr is the validator's rejection, nil if it passed or
	// no validator is configured.
	ValidationErr error

	Artifact         string
	ValidationOutput []byte
	Quality          int
	Bytes            int64
	Duration         time.Duration
	Validated        bool
}

// OK reports whether the level encoded and, if checked, validated.
func (r *LevelResult) OK() bool {
	return r.Err == nil && r.ValidationErr == nil
}

// Report collects the results of a batch in quality order.
type Report struct {
	Levels []LevelResult
}

// Failed returns the levels that did not succeed.
func (r *Report) Failed() []LevelResult {
	var failed []LevelResult
	for _, l := range r.Levels {
		if !l.OK() {
			failed = append(failed, l)
		}
	}
	return failed
}

// RunBatch loads the module and samples, instantiates the module once and
// encodes one artifact per configured quality level.
//
// Setup failures are returned before any level runs. After that every
// level is attempted: its failures are logged and recorded in the Report
// and never stop the batch.
//
// Cancelling ctx interrupts the running guest call and stops the batch;
// the levels finished so far are returned with an error wrapping ctx.Err().
func RunBatch(ctx context.Context, cfg *BatchConfig) (*Report, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	le := cfg.Logger

	wasm := cfg.Module
	if wasm == nil {
		if wasm, err = readSource(cfg.ModulePath, "module"); err != nil {
			return nil, err
		}
	}
	var source *PCMSource
	if cfg.Samples != nil {
		source = ParsePCM(cfg.Samples)
	} else if source, err = LoadPCM(cfg.SamplePath); err != nil {
		return nil, err
	}
	le.Info("loaded inputs", zap.Int("module_bytes", len(wasm)), zap.Int("samples", source.Len()))

	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, newError("runtime", KindInvalidConfig, err, "compilation cache %s", cfg.CacheDir)
		}
		defer cache.Close(ctx)
		rtCfg = rtCfg.WithCompilationCache(cache)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	defer r.Close(ctx)

	enc, err := NewEncoder(ctx, r, wasm, &Config{
		Source:       source,
		ReservePages: cfg.ReservePages,
		Logger:       le,
	})
	if err != nil {
		return nil, err
	}
	defer enc.Close(ctx)

	if err := enc.Init(ctx); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, newError("output", KindSourceUnavailable, err, "output directory %s", cfg.OutputDir)
	}

	report := &Report{Levels: make([]LevelResult, 0, len(cfg.Qualities))}
	for _, q := range cfg.Qualities {
		if ctx.Err() != nil {
			break
		}
		res := runLevel(ctx, enc, cfg, q)
		report.Levels = append(report.Levels, res)
	}
	if err := ctx.Err(); err != nil {
		le.Warn("batch interrupted",
			zap.Int("levels", len(report.Levels)),
			zap.Int("planned", len(cfg.Qualities)),
			zap.Error(err),
		)
		return report, fmt.Errorf("batch interrupted after %d of %d levels: %w",
			len(report.Levels), len(cfg.Qualities), err)
	}

	le.Info("batch finished",
		zap.Int("levels", len(report.Levels)),
		zap.Int("failed", len(report.Failed())),
		zap.Uint32("arena_top", enc.ArenaTop()),
	)
	return report, nil
}

// runLevel is one session: open, encode, close, validate.
func runLevel(ctx context.Context, enc *Encoder, cfg *BatchConfig, quality int) LevelResult {
	path := filepath.Join(cfg.OutputDir, ArtifactName(cfg.ArtifactBase, quality, cfg.ArtifactExt))
	res := LevelResult{Quality: quality, Artifact: path}
	le := cfg.Logger.With(zap.Int("quality", quality), zap.String("artifact", path))

	f, err := os.Create(path)
	if err != nil {
		res.Err = err
		le.Error("cannot open artifact", zap.Error(err))
		return res
	}

	start := time.Now()
	res.Bytes, res.Err = enc.Encode(ctx, quality, f)
	res.Duration = time.Since(start)
	if cerr := f.Close(); cerr != nil && res.Err == nil {
		res.Err = cerr
	}

	if res.Err != nil {
		le.Error("encode failed", zap.Error(res.Err), zap.Duration("duration", res.Duration))
	} else {
		le.Info("encoded", zap.Int64("bytes", res.Bytes), zap.Duration("duration", res.Duration))
	}

	// An interrupted artifact is not worth validating.
	if cfg.Validator != nil && ctx.Err() == nil {
		res.Validated = true
		res.ValidationOutput, res.ValidationErr = cfg.Validator.Validate(ctx, path)
		if res.ValidationErr != nil {
			le.Warn("validation failed", zap.Error(res.ValidationErr), zap.ByteString("output", res.ValidationOutput))
		} else {
			le.Info("validated", zap.ByteString("output", res.ValidationOutput))
		}
	}
	return res
}

func readSource(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError("load", KindSourceUnavailable, err, "%s file %s", what, path)
		}
		return nil, newError("load", KindSourceUnavailable, err, "read %s file %s", what, path)
	}
	return data, nil
}
