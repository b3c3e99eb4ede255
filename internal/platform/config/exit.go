package config

import (
	"fmt"
	"io"
	"os"
)

// Exit codes of the battleship command.
const (
	ExitWon     = 0
	ExitFailure = 1
	ExitLost    = 2
	ExitUsage   = 64
)

var exit = os.Exit

// Exitf writes a formatted error message to stderr and exits with
// ExitFailure.
func Exitf(format string, args ...any) {
	ExitCodef(os.Stderr, ExitFailure, format, args...)
}

// ExitCodef writes a formatted message to w and exits with code.
func ExitCodef(w io.Writer, code int, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
	exit(code)
}
