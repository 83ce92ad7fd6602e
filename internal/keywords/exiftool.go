package keywords

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"photojobs/internal/jobs"
)

// Executor abstracts external tool execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// CommandExecutor returns the production executor backed by os/exec.
func CommandExecutor() Executor { return commandExecutor{} }

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return stdout.String(), fmt.Errorf("%w: %s: %v: %s", jobs.ErrExternalTool, binary, err, detail)
		}
		return stdout.String(), fmt.Errorf("%w: %s: %v", jobs.ErrExternalTool, binary, err)
	}
	return stdout.String(), nil
}

// writeArgs builds the exiftool invocation that clears and re-appends the
// keyword list on path. IPTC:Keywords, XMP-dc:Subject, and the Lightroom
// hierarchical subject are all written; EXIF:Keywords is skipped because many
// files report it as non-writable.
func writeArgs(keywords []string, path string) []string {
	args := []string{"-overwrite_original", "-m", "-q", "-q"}
	for _, field := range []string{"-IPTC:Keywords", "-XMP-dc:Subject", "-XMP-lr:HierarchicalSubject"} {
		args = append(args, field+"=")
		for _, kw := range keywords {
			args = append(args, field+"+="+kw)
		}
	}
	return append(args, path)
}

// ReadArgs builds the exiftool invocation used to read keyword fields back.
func ReadArgs(path string) []string {
	return []string{"-s", "-s", "-s", "-IPTC:Keywords", "-XMP-dc:Subject", path}
}
