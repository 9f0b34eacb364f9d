package ui

import (
	"encoding/json"
	"io"
)

// Severity classifies the visual weight of a piece of inline text. The
// terminal layer maps each value to a colour; data consumers (JSON, tests)
// see plain text.
type Severity uint8

const (
	SeverityInfo    Severity = iota // plain
	SeveritySuccess                 // green
	SeverityWarn                    // yellow
	SeverityError                   // red
)

// StyledText pairs a plain string with a Severity annotation. It marshals as
// just the plain string so JSON output carries no ANSI codes.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UI provides all terminal interaction for the commands.
//
// Production code uses TerminalUI; tests use RecordingUI, which captures all
// output and serves scripted inputs. Use Indent to get a child UI one indent
// level deeper for nested prompts; the child shares the parent's writer and
// input queue so sequencing is preserved.
type UI interface {
	Style(t StyledText) string
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Section(title string)

	// Ask prompts for one line of input, repeating until validate accepts
	// it. A nil validator accepts everything.
	Ask(validate func(string) error) string
	// AskPassword prompts for a password without echoing it.
	AskPassword(prompt string) string
	Confirm(prompt string, defaultYes bool) bool
	Choose(prompt string, options []string) int

	Table(headers []string, rows [][]string)
	// Spinner starts an animated progress indicator and returns its stop
	// function.
	Spinner(msg string) func()

	Indent() UI
	Writer() io.Writer
}
