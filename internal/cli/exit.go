package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ozmeta-labs/ozmeta/internal/cli/commands"
	"github.com/ozmeta-labs/ozmeta/internal/deploy"
	"github.com/ozmeta-labs/ozmeta/internal/export"
	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// Documented exit codes. Every command failure maps to exactly one of these.
const (
	ExitOK           = 0
	ExitInvalidInput = 2
	ExitFileError    = 3
	ExitConnection   = 4
	ExitUnexpected   = 10
)

// ExitCode maps an error returned by command execution to a process exit
// code. Validation and contract failures are input errors, unreadable or
// unwritable paths are file errors, unreachable sources are connection
// errors, and everything else is unexpected.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		invalid  *snapshot.InvalidError
		contract *export.ContractError
		unmapped *platform.UnmappedTypeError
		parse    *metrics.ParseError
		pathErr  *fs.PathError
	)
	switch {
	case errors.As(err, &invalid),
		errors.As(err, &contract),
		errors.As(err, &unmapped),
		errors.As(err, &parse),
		errors.Is(err, deploy.ErrValidationFailed),
		errors.Is(err, commands.ErrInput):
		return ExitInvalidInput
	case errors.Is(err, export.ErrConnection),
		errors.Is(err, deploy.ErrDeployFailed):
		return ExitConnection
	case errors.As(err, &pathErr),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, os.ErrPermission):
		return ExitFileError
	}
	return ExitUnexpected
}
