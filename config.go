package encodevorbis

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// BatchConfig configures RunBatch.
type BatchConfig struct {
	// Module is the EncodeVorbis wasm binary. If nil, ModulePath is read.
	Module []byte `validate:"required_without=ModulePath"`
	// ModulePath is the path of the wasm binary.
	ModulePath string `validate:"required_without=Module"`

	// Samples is the raw 16-bit little-endian interleaved stereo input.
	// If nil, SamplePath is read.
	Samples []byte `validate:"required_without=SamplePath"`
	// SamplePath is the path of the raw sample file.
	SamplePath string `validate:"required_without=Samples"`

	// OutputDir receives one artifact per quality. Default: ".".
	OutputDir string
	// ArtifactBase prefixes artifact names. Default: DefaultArtifactBase.
	ArtifactBase string `validate:"omitempty,excludesall=/\\"`
	// ArtifactExt suffixes artifact names. Default: DefaultArtifactExt.
	ArtifactExt string `validate:"omitempty,excludesall=/\\"`

	// Qualities lists the levels to encode, in order.
	// Default: MinQuality through MaxQuality.
	Qualities []int `validate:"omitempty,dive,min=0,max=10"`

	// Validator checks each artifact after it is closed. Optional.
	Validator Validator `validate:"-"`
	// ValidatorPath is used to build an ExecValidator when Validator is nil.
	ValidatorPath string

	// ReservePages pre-grows the guest memory at instantiation.
	ReservePages uint32 `validate:"max=4096"`
	// CacheDir enables wazero's on-disk compilation cache.
	CacheDir string

	// Logger overrides the package logger.
	Logger *zap.Logger `validate:"-"`
}

// withDefaults validates c and returns a copy with defaults applied.
func (c *BatchConfig) withDefaults() (*BatchConfig, error) {
	if c == nil {
		return nil, newError("config", KindInvalidConfig, nil, "batch config is required")
	}
	if err := validate.Struct(c); err != nil {
		return nil, newError("config", KindInvalidConfig, err, "invalid batch config")
	}

	out := *c
	if out.OutputDir == "" {
		out.OutputDir = "."
	}
	if out.ArtifactBase == "" {
		out.ArtifactBase = DefaultArtifactBase
	}
	if out.ArtifactExt == "" {
		out.ArtifactExt = DefaultArtifactExt
	}
	if len(out.Qualities) == 0 {
		for q := MinQuality; q <= MaxQuality; q++ {
			out.Qualities = append(out.Qualities, q)
		}
	}
	if out.Validator == nil && out.ValidatorPath != "" {
		out.Validator = &ExecValidator{Program: out.ValidatorPath}
	}
	if out.Logger == nil {
		out.Logger = Logger()
	}
	return &out, nil
}
