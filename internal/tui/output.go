package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode is how results are presented.
type OutputMode int

const (
	// OutputModePlain is uncolored text, for pipes and dumb terminals.
	OutputModePlain OutputMode = iota
	// OutputModeStyled is colored, non-interactive output.
	OutputModeStyled
	// OutputModeInteractive runs the Bubble Tea program.
	OutputModeInteractive
)

const defaultTerminalWidth = 80

// String implements fmt.Stringer.
func (m OutputMode) String() string {
	switch m {
	case OutputModeStyled:
		return "styled"
	case OutputModeInteractive:
		return "interactive"
	default:
		return "plain"
	}
}

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the stdout width, or 80 when unknown.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTerminalWidth
	}
	return w
}

// DetectOutputMode picks the output mode.
//
// plain forces OutputModePlain, as do NO_COLOR, TERM=dumb and a non-terminal
// stdout. forceColor yields at least OutputModeStyled. noInteractive caps the
// result at OutputModeStyled.
func DetectOutputMode(forceColor, plain, noInteractive bool) OutputMode {
	return detectOutputMode(forceColor, plain, noInteractive, IsTTY(), os.Getenv)
}

func detectOutputMode(forceColor, plain, noInteractive, tty bool, getenv func(string) string) OutputMode {
	if plain || getenv("NO_COLOR") != "" {
		return OutputModePlain
	}
	if forceColor {
		if tty && !noInteractive {
			return OutputModeInteractive
		}
		return OutputModeStyled
	}
	if !tty || getenv("TERM") == "dumb" {
		return OutputModePlain
	}
	if noInteractive || getenv("CI") != "" {
		return OutputModeStyled
	}
	return OutputModeInteractive
}
