package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

type summaryLine struct {
	label string
	value string
}

func count(label string, n int) summaryLine {
	return summaryLine{label: label, value: fmt.Sprintf("%d", n)}
}

func textLine(label, value string) summaryLine {
	return summaryLine{label: label, value: value}
}

// printSummary writes the terminal summary block. The "=== Summary ===" line
// is parsed verbatim by the external launcher; never change it.
func printSummary(w io.Writer, lines []summaryLine) {
	header := "=== Summary ==="
	if shouldColorize(w) {
		header = ansiBold + header + ansiReset
	}
	fmt.Fprintln(w, header)

	width := 0
	for _, line := range lines {
		if len(line.label) > width {
			width = len(line.label)
		}
	}
	for _, line := range lines {
		fmt.Fprintf(w, "%-*s  %s\n", width+1, line.label+":", line.value)
	}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
