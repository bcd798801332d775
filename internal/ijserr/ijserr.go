// Package ijserr formats source-positioned engine errors for terminal
// output: a file:line:col header, the offending source line with a little
// leading context, and a caret under the failing column.
package ijserr

import (
	"fmt"
	"strings"

	"github.com/go-jsvm/jsvm/internal/token"
)

// contextBefore is how many source lines precede the offending one in the
// rendered snippet.
const contextBefore = 1

// SourceError is a single error with position and source context.
type SourceError struct {
	Message string
	Source  string
	File    string
	Pos     token.Position
}

// New creates a SourceError.
func New(pos token.Position, message, source, file string) *SourceError {
	return &SourceError{Pos: pos, Message: message, Source: source, File: file}
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return e.Format(false)
}

// Format renders the error with source context; color enables ANSI
// escapes for terminal output.
func (e *SourceError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		fmt.Fprintf(&sb, "Error in %s:%d:%d\n", e.File, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "Error at line %d:%d\n", e.Pos.Line, e.Pos.Column)
	}

	lines := e.sourceLines()
	if e.Pos.Line >= 1 && e.Pos.Line <= len(lines) {
		first := e.Pos.Line - contextBefore
		if first < 1 {
			first = 1
		}
		var gutterWidth int
		for n := first; n <= e.Pos.Line; n++ {
			gutter := fmt.Sprintf("%4d | ", n)
			gutterWidth = len(gutter)
			sb.WriteString(gutter)
			sb.WriteString(lines[n-1])
			sb.WriteString("\n")
		}

		col := e.Pos.Column
		if col < 1 {
			col = 1
		}
		sb.WriteString(strings.Repeat(" ", gutterWidth+col-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func (e *SourceError) sourceLines() []string {
	if e.Source == "" {
		return nil
	}
	return strings.Split(e.Source, "\n")
}

// FormatErrors renders a batch of errors separated by blank lines.
func FormatErrors(errs []*SourceError, color bool) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Format(color)
	}
	return strings.Join(parts, "\n\n")
}
