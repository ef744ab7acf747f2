package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/ozmeta-labs/ozmeta/internal/cli/commands"
	"github.com/ozmeta-labs/ozmeta/internal/deploy"
	"github.com/ozmeta-labs/ozmeta/internal/export"
	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is ok", nil, ExitOK},
		{
			"snapshot violations are input errors",
			&snapshot.InvalidError{Violations: []snapshot.Violation{{Area: "model"}}},
			ExitInvalidInput,
		},
		{
			"wrapped snapshot violations are input errors",
			fmt.Errorf("validate: %w", &snapshot.InvalidError{}),
			ExitInvalidInput,
		},
		{
			"export contract violations are input errors",
			&export.ContractError{Violations: []string{"dup code"}},
			ExitInvalidInput,
		},
		{
			"unmapped types are input errors",
			&platform.UnmappedTypeError{LogicalType: "money", PlatformCode: "bigquery"},
			ExitInvalidInput,
		},
		{
			"formula parse failures are input errors",
			&metrics.ParseError{},
			ExitInvalidInput,
		},
		{
			"flagged input errors map to input",
			fmt.Errorf("%w: bad scheduler", commands.ErrInput),
			ExitInvalidInput,
		},
		{
			"slot validation failure maps to input",
			fmt.Errorf("deploy: %w", deploy.ErrValidationFailed),
			ExitInvalidInput,
		},
		{
			"connection failures map to connection",
			fmt.Errorf("open: %w", export.ErrConnection),
			ExitConnection,
		},
		{
			"deploy failures map to connection",
			fmt.Errorf("deploy: %w", deploy.ErrDeployFailed),
			ExitConnection,
		},
		{
			"path errors are file errors",
			&fs.PathError{Op: "open", Path: "missing.json", Err: fs.ErrNotExist},
			ExitFileError,
		},
		{"anything else is unexpected", errors.New("boom"), ExitUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
