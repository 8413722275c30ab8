package tagnest

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidArgument is returned, wrapped in an *ArgumentError, when an API
// is called with an absent tag or element name.
var ErrInvalidArgument = errors.New("invalid argument")

// Position represents a position in the input stream.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, counted in runes
}

// String returns a string representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// advance moves p past the bytes in b. Continuation bytes of a multi-byte
// rune do not move the column.
func (p Position) advance(b []byte) Position {
	for _, c := range b {
		switch {
		case c == '\n':
			p.Line++
			p.Column = 1
		case utf8.RuneStart(c):
			p.Column++
		}
	}
	return p
}

// ArgumentError reports misuse of the API. It is never produced for
// malformed markup.
type ArgumentError struct {
	Op      string // Operation that rejected the argument
	Arg     string // Argument name
	Message string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid argument %s: %s", e.Op, e.Arg, e.Message)
}

// Unwrap makes errors.Is(err, ErrInvalidArgument) succeed.
func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// NewArgumentError creates a new ArgumentError.
func NewArgumentError(op, arg, message string) *ArgumentError {
	return &ArgumentError{Op: op, Arg: arg, Message: message}
}

// ParseError is the base error type for tokenizer errors.
type ParseError struct {
	Pos     Position // Position where the error occurred
	Message string   // Error message
	Context string   // Surrounding content for context
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s at %s\nContext: %s", e.Message, e.Pos, e.Context)
	}
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

// MalformedTagError represents markup that starts a tag but never completes one.
type MalformedTagError struct {
	ParseError
	TagName string // Name of the malformed tag, if one could be read
}

// Error implements the error interface.
func (e *MalformedTagError) Error() string {
	name := e.TagName
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("malformed tag <%s> at %s: %s\nContext: %s",
		name, e.Pos, e.Message, e.Context)
}

// NewMalformedTagError creates a new MalformedTagError.
func NewMalformedTagError(pos Position, tagName, message, context string) *MalformedTagError {
	return &MalformedTagError{
		ParseError: ParseError{
			Pos:     pos,
			Message: message,
			Context: extractContext(context, pos),
		},
		TagName: tagName,
	}
}

// extractContext returns the lines around pos, numbered, with the error
// line marked and a caret under the column. content is the text the
// position refers to.
func extractContext(content string, pos Position) string {
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return content
	}

	startLine := max(0, pos.Line-3)
	endLine := min(len(lines)-1, pos.Line+1)

	var sb strings.Builder
	for i := startLine; i <= endLine; i++ {
		lineNum := i + 1
		if lineNum == pos.Line {
			fmt.Fprintf(&sb, "-> %d: %s\n", lineNum, lines[i])
			if pos.Column <= utf8.RuneCountInString(lines[i])+1 {
				sb.WriteString(strings.Repeat(" ", pos.Column+5) + "^\n")
			}
		} else {
			fmt.Fprintf(&sb, "   %d: %s\n", lineNum, lines[i])
		}
	}

	return sb.String()
}
