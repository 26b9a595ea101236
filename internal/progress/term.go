package progress

import (
	"io"

	"golang.org/x/term"
)

type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether w is attached to a terminal. Writers that
// are not backed by a file descriptor never are.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// TerminalWidth returns the column count of the terminal behind w.
func TerminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(fder)
	if !ok {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // G115: fd fits in int
	if err != nil {
		return 0, false
	}
	return width, true
}
