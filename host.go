package encodevorbis

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// MathImports are the pure math functions offered to the guest.
type MathImports interface {
	Log(x float64) float64
	Sin(x float64) float64
	Cos(x float64) float64
	Exp(x float64) float64
	Atan(x float64) float64
	Abs(x float64) float64
	Labs(x float64) float64
	Sqrt(x float64) float64
	Fabs(x float64) float64
	Pow(x, y float64) float64
	Ldexp(mantissa float64, exponent int32) float64
}

// Imports is the complete import surface the guest is linked against.
// A non-nil error aborts the guest call in progress.
type Imports interface {
	MathImports

	Exit(code int32) error
	Sbrk(increment int32) (int32, error)
	Memcpy(dest, src, count uint32) (uint32, error)
	Memmove(dest, src, count uint32) (uint32, error)
	Memset(dest, ch, count uint32) (uint32, error)

	EncodeVorbisOutput(ptr, length uint32)
	EncodeVorbisFeedSamples(pair, num uint32) (uint32, error)
}

// abort unwinds the guest call; wazero recovers the panic and returns err
// wrapped from api.Function.Call.
func abort(err error) {
	if err != nil {
		panic(err)
	}
}

// InstantiateImports binds imp as the ImportModuleEnv host module of r.
func InstantiateImports(ctx context.Context, r wazero.Runtime, imp Imports) (api.Module, error) {
	b := r.NewHostModuleBuilder(ImportModuleEnv)
	export := func(name string, fn any) {
		b.NewFunctionBuilder().WithFunc(fn).Export(name)
	}

	export(ImportExit, func(code int32) {
		abort(imp.Exit(code))
	})
	export(ImportSbrk, func(increment int32) int32 {
		v, err := imp.Sbrk(increment)
		abort(err)
		return v
	})
	export(ImportMemcpy, func(dest, src, count uint32) uint32 {
		v, err := imp.Memcpy(dest, src, count)
		abort(err)
		return v
	})
	export(ImportMemmove, func(dest, src, count uint32) uint32 {
		v, err := imp.Memmove(dest, src, count)
		abort(err)
		return v
	})
	export(ImportMemset, func(dest, ch, count uint32) uint32 {
		v, err := imp.Memset(dest, ch, count)
		abort(err)
		return v
	})

	export("log", imp.Log)
	export("sin", imp.Sin)
	export("cos", imp.Cos)
	export("exp", imp.Exp)
	export("atan", imp.Atan)
	export("abs", imp.Abs)
	export("labs", imp.Labs)
	export("sqrt", imp.Sqrt)
	export("fabs", imp.Fabs)
	export(ImportPow, imp.Pow)
	export(ImportLdexp, imp.Ldexp)

	export(ImportOutput, imp.EncodeVorbisOutput)
	export(ImportFeedSamples, func(pair, num uint32) uint32 {
		v, err := imp.EncodeVorbisFeedSamples(pair, num)
		abort(err)
		return v
	})

	env, err := b.Instantiate(ctx)
	if err != nil {
		return nil, newError("env", KindInstantiation, err, "failed to register host functions")
	}
	return env, nil
}

// CheckImports verifies that every function compiled imports from
// ImportModuleEnv exists in env with the same signature.
func CheckImports(compiled wazero.CompiledModule, env api.Module) error {
	provided := env.ExportedFunctionDefinitions()
	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		if module != ImportModuleEnv {
			return newError("link", KindInstantiation, nil, "unsupported import module %q (%s.%s)", module, module, name)
		}
		fn, ok := provided[name]
		if !ok {
			return newError("link", KindInstantiation, nil, "unknown import %s.%s", module, name)
		}
		want := signature(def.ParamTypes(), def.ResultTypes())
		have := signature(fn.ParamTypes(), fn.ResultTypes())
		if want != have {
			return newError("link", KindInstantiation, nil,
				"import %s.%s: guest expects %s, host provides %s", module, name, want, have)
		}
	}
	return nil
}

func signature(params, results []api.ValueType) string {
	names := func(ts []api.ValueType) string {
		s := make([]string, len(ts))
		for i, t := range ts {
			s[i] = api.ValueTypeName(t)
		}
		return strings.Join(s, ",")
	}
	return fmt.Sprintf("(%s)->(%s)", names(params), names(results))
}
