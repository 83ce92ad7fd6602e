package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"photojobs/internal/logging"
)

func TestCommandLoggerCarriesRunFields(t *testing.T) {
	var buf bytes.Buffer
	cctx := newCommandContext(nil)
	cctx.loggerOnce.Do(func() {
		logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
		if err != nil {
			t.Fatalf("logging.New failed: %v", err)
		}
		cctx.logger = logger
	})

	cmd := &cobra.Command{Use: "verify"}
	cmd.SetContext(context.Background())
	ctx := cctx.commandCtx(cmd)
	cctx.commandLogger(ctx).Info("audit started")

	line := buf.String()
	for _, field := range []string{
		`"` + logging.FieldRunID + `":"` + cctx.runID + `"`,
		`"` + logging.FieldCommand + `":"verify"`,
	} {
		if !strings.Contains(line, field) {
			t.Fatalf("log line missing %s: %s", field, line)
		}
	}
}
