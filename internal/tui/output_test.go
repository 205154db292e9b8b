package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectOutputMode(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	tests := []struct {
		name          string
		forceColor    bool
		plain         bool
		noInteractive bool
		tty           bool
		vars          map[string]string
		want          OutputMode
	}{
		{name: "tty", tty: true, want: OutputModeInteractive},
		{name: "pipe", tty: false, want: OutputModePlain},
		{name: "plain flag", tty: true, plain: true, want: OutputModePlain},
		{name: "NO_COLOR", tty: true, vars: map[string]string{"NO_COLOR": "1"}, want: OutputModePlain},
		{name: "dumb terminal", tty: true, vars: map[string]string{"TERM": "dumb"}, want: OutputModePlain},
		{name: "CI", tty: true, vars: map[string]string{"CI": "true"}, want: OutputModeStyled},
		{name: "no interactive", tty: true, noInteractive: true, want: OutputModeStyled},
		{name: "force color on pipe", forceColor: true, want: OutputModeStyled},
		{name: "force color on tty", forceColor: true, tty: true, want: OutputModeInteractive},
		{name: "plain beats force", forceColor: true, plain: true, tty: true, want: OutputModePlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectOutputMode(tt.forceColor, tt.plain, tt.noInteractive, tt.tty, env(tt.vars))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputMode_String(t *testing.T) {
	assert.Equal(t, "plain", OutputModePlain.String())
	assert.Equal(t, "styled", OutputModeStyled.String())
	assert.Equal(t, "interactive", OutputModeInteractive.String())
}

func TestTerminalWidth_Fallback(t *testing.T) {
	// Test binaries run without a terminal on stdout.
	assert.Positive(t, TerminalWidth())
}
