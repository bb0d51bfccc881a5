package encodevorbis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// Encoder hosts one instance of the EncodeVorbis guest module.
//
// The guest memory, its arena top and the import binding live as long as
// the Encoder; Encode calls run one at a time.
type Encoder struct {
	runtime wazero.Runtime
	env     api.Module
	mod     api.Module

	// Guest exports
	callCtors    api.Function
	encodeVorbis api.Function

	arena  *Arena
	source *PCMSource
	sink   OutputSink
	log    *zap.Logger

	// Mutex for Encode calls (the guest is single-threaded)
	mu sync.Mutex

	// State
	initialized bool
}

// Config holds configuration for creating a new Encoder.
type Config struct {
	// Source supplies the samples of every Encode call. Required.
	Source *PCMSource
	// ReservePages grows guest memory by this many pages right after
	// instantiation. Default: 0.
	ReservePages uint32
	// Logger overrides the package logger.
	Logger *zap.Logger
}

// CompileEncoder compiles an EncodeVorbis module.
// The compiled module can be reused across multiple Encoder instances on r.
func CompileEncoder(ctx context.Context, r wazero.Runtime, wasm []byte) (wazero.CompiledModule, error) {
	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return nil, newError("compile", KindInstantiation, err, "invalid EncodeVorbis module")
	}
	return compiled, nil
}

// NewEncoder compiles and instantiates wasm.
// Call Close() when done to release resources.
func NewEncoder(ctx context.Context, r wazero.Runtime, wasm []byte, cfg *Config) (*Encoder, error) {
	compiled, err := CompileEncoder(ctx, r, wasm)
	if err != nil {
		return nil, err
	}

	return NewEncoderWithModule(ctx, r, compiled, cfg)
}

// NewEncoderWithModule creates an Encoder from a pre-compiled module.
//
// The host functions are registered on r under ImportModuleEnv, so r can
// host only one Encoder at a time.
func NewEncoderWithModule(ctx context.Context, r wazero.Runtime, compiled wazero.CompiledModule, cfg *Config) (*Encoder, error) {
	if cfg == nil || cfg.Source == nil {
		return nil, newError("config", KindInvalidConfig, nil, "sample source is required")
	}

	le := cfg.Logger
	if le == nil {
		le = Logger()
	}

	// Create the Encoder first so the host functions can reference it
	e := &Encoder{
		runtime: r,
		source:  cfg.Source,
		log:     le,
	}

	env, err := InstantiateImports(ctx, r, &host{e: e})
	if err != nil {
		return nil, err
	}
	if err := CheckImports(compiled, env); err != nil {
		env.Close(ctx)
		return nil, err
	}

	// No start function is run; constructors are called by Init.
	modCfg := wazero.NewModuleConfig().WithName("EncodeVorbis").WithStartFunctions()
	mod, err := r.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		env.Close(ctx)
		return nil, newError("instantiate", KindInstantiation, err, "failed to instantiate module")
	}

	e.env = env
	e.mod = mod
	e.callCtors = mod.ExportedFunction(ExportCallCtors)
	e.encodeVorbis = mod.ExportedFunction(ExportEncodeVorbis)
	mem := mod.ExportedMemory(ExportMemory)

	// Validate required exports
	var missing string
	switch {
	case mem == nil:
		missing = ExportMemory
	case e.callCtors == nil:
		missing = ExportCallCtors
	case e.encodeVorbis == nil:
		missing = ExportEncodeVorbis
	}
	if missing != "" {
		e.closeModules(ctx)
		return nil, newError("instantiate", KindMissingExport, nil, "missing export: %s", missing)
	}

	e.arena = NewArena(mem)
	if err := e.arena.Reserve(cfg.ReservePages); err != nil {
		e.closeModules(ctx)
		return nil, err
	}

	le.Debug("instantiated EncodeVorbis module",
		zap.Uint32("memory_bytes", mem.Size()),
		zap.Uint32("arena_top", e.arena.Top()),
	)
	return e, nil
}

// Init runs the guest's constructors. It must be called once before Encode;
// further calls do nothing.
func (e *Encoder) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if _, err := e.callCtors.Call(ctx); err != nil {
		return fmt.Errorf("%s failed: %w", ExportCallCtors, guestError(ExportCallCtors, err))
	}

	e.initialized = true
	return nil
}

// Encode rewinds the sample source and runs the guest's entry point at the
// given quality, streaming the encoded bytes to w. It returns the number of
// bytes written.
//
// A failure inside the guest call fails only this call: the Encoder stays
// usable for the next one.
func (e *Encoder) Encode(ctx context.Context, quality int, w io.Writer) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, errors.New("encoder not initialized, call Init() first")
	}
	if quality < MinQuality || quality > MaxQuality {
		return 0, newError(ExportEncodeVorbis, KindInvalidConfig, nil,
			"quality %d outside [%d, %d]", quality, MinQuality, MaxQuality)
	}

	e.source.Reset()
	e.sink.Open(w)
	_, err := e.encodeVorbis.Call(ctx, api.EncodeI32(int32(quality)))
	n, werr := e.sink.Close()

	if err != nil {
		return n, fmt.Errorf("%s(%d) failed: %w", ExportEncodeVorbis, quality, guestError(ExportEncodeVorbis, err))
	}
	if werr != nil {
		return n, fmt.Errorf("writing output at quality %d: %w", quality, werr)
	}
	return n, nil
}

// ArenaTop returns the guest heap's current end address.
func (e *Encoder) ArenaTop() uint32 {
	return e.arena.Top()
}

// Close releases the guest instance and its host module.
func (e *Encoder) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.initialized = false
	return e.closeModules(ctx)
}

func (e *Encoder) closeModules(ctx context.Context) error {
	var errs []error
	if e.mod != nil {
		errs = append(errs, e.mod.Close(ctx))
		e.mod = nil
	}
	if e.env != nil {
		errs = append(errs, e.env.Close(ctx))
		e.env = nil
	}
	return errors.Join(errs...)
}

// guestError keeps host-raised errors as they are and classifies anything
// else (traps, stack exhaustion) as a guest abort.
func guestError(op string, err error) error {
	var he *Error
	if errors.As(err, &he) {
		return err
	}
	return newError(op, KindGuestAbort, err, "guest trapped")
}

// host implements Imports on top of an Encoder's arena, source and sink.
type host struct {
	MathBridge
	e *Encoder
}

var _ Imports = (*host)(nil)

func (h *host) memory(op string) (Memory, error) {
	if h.e.arena == nil {
		return nil, newError(op, KindInstantiation, nil, "called before the module was instantiated")
	}
	return h.e.arena.Memory(), nil
}

func (h *host) Exit(code int32) error {
	return newError(ImportExit, KindGuestAbort, nil, "exit(%d) called", code)
}

func (h *host) Sbrk(increment int32) (int32, error) {
	if _, err := h.memory(ImportSbrk); err != nil {
		return 0, err
	}
	// The arena only grows; a trim request gets the C failure value.
	if increment < 0 {
		return -1, nil
	}
	old, err := h.e.arena.Sbrk(uint32(increment))
	return int32(old), err
}

func (h *host) Memcpy(dest, src, count uint32) (uint32, error) {
	mem, err := h.memory(ImportMemcpy)
	if err != nil {
		return 0, err
	}
	return Memcpy(mem, dest, src, count)
}

func (h *host) Memmove(dest, src, count uint32) (uint32, error) {
	mem, err := h.memory(ImportMemmove)
	if err != nil {
		return 0, err
	}
	return Memmove(mem, dest, src, count)
}

func (h *host) Memset(dest, ch, count uint32) (uint32, error) {
	mem, err := h.memory(ImportMemset)
	if err != nil {
		return 0, err
	}
	return Memset(mem, dest, ch, count)
}

func (h *host) EncodeVorbisOutput(ptr, length uint32) {
	mem, err := h.memory(ImportOutput)
	if err != nil {
		return
	}
	h.e.sink.Write(mem, ptr, length)
}

func (h *host) EncodeVorbisFeedSamples(pair, num uint32) (uint32, error) {
	mem, err := h.memory(ImportFeedSamples)
	if err != nil {
		return 0, err
	}
	return h.e.source.FeedInto(mem, pair, num)
}
