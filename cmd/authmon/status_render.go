package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"authmon/internal/preflight"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// checkNameWidth fits the longest check name plus its colon.
const checkNameWidth = 16

var statusStyles = map[preflight.Status]struct {
	label string
	color string
}{
	preflight.StatusInfo: {"INFO", ansiBlue},
	preflight.StatusOK:   {"OK", ansiGreen},
	preflight.StatusWarn: {"WARN", ansiYellow},
	preflight.StatusFail: {"FAIL", ansiRed},
}

// formatResult renders one preflight result as "  Name:   [OK] detail".
func formatResult(r preflight.Result, colorize bool) string {
	style, ok := statusStyles[r.Status]
	if !ok {
		style = statusStyles[preflight.StatusInfo]
	}
	line := fmt.Sprintf("  %-*s [%s]", checkNameWidth, r.Name+":", style.label)
	if r.Detail != "" {
		line += " " + r.Detail
	}
	if !colorize {
		return line
	}
	return style.color + line + ansiReset
}

func printHeading(out io.Writer, title string, colorize bool) {
	if colorize {
		fmt.Fprintf(out, "%s%s%s\n", ansiBlue, title, ansiReset)
		return
	}
	fmt.Fprintln(out, title)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
