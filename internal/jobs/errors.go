package jobs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify command failures. Commands wrap errors
// with one of these so the CLI can map them to stable exit codes.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrCSVFormat      = errors.New("csv format error")
	ErrPlanValidation = errors.New("plan validation error")
	ErrNotFound       = errors.New("not found")
	ErrExternalTool   = errors.New("external tool error")
	ErrTimeout        = errors.New("timeout")
	ErrPartialFailure = errors.New("partial failure")
)

// Exit codes form a stable contract with the external launcher.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitConfiguration  = 2
	ExitCSVFormat      = 3
	ExitPlanValidation = 4
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later exit-code classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrPartialFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a command error to the process exit code the launcher
// expects. Nil maps to ExitOK.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrCSVFormat):
		return ExitCSVFormat
	case errors.Is(err, ErrPlanValidation):
		return ExitPlanValidation
	default:
		return ExitFailure
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "job failure"
	}
	return strings.Join(parts, ": ")
}
