package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const statusLabelWidth = 12

func renderStatusLine(label, message string, ok, colorize bool) string {
	verdict := "OK"
	color := ansiGreen
	if !ok {
		verdict = "FAIL"
		color = ansiRed
	}
	line := fmt.Sprintf("%-*s [%s] %s", statusLabelWidth, label+":", verdict, message)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
