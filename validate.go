package encodevorbis

import (
	"bytes"
	"context"
	"os/exec"
)

// Validator checks a finished artifact.
type Validator interface {
	// Validate inspects the artifact at path.
	// Returns: the validator's report, and a KindValidation error when the
	// artifact is rejected or the validator could not run.
	Validate(ctx context.Context, path string) ([]byte, error)
}

// ExecValidator runs an external program (e.g. oggz-validate) with the
// artifact path as its last argument. A non-zero exit status rejects it.
type ExecValidator struct {
	// Program is the validator executable, looked up in PATH if it has no
	// path separator.
	Program string
	// Args are passed before the artifact path.
	Args []string
}

// Validate runs the program and returns its combined stdout and stderr.
func (v *ExecValidator) Validate(ctx context.Context, path string) ([]byte, error) {
	args := append(append([]string(nil), v.Args...), path)
	cmd := exec.CommandContext(ctx, v.Program, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.Bytes(), newError("validate", KindValidation, err, "%s %s", v.Program, path)
	}
	return out.Bytes(), nil
}
