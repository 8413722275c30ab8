package tagnest

import (
	"io"
	"strings"
)

// DefaultIndent is the per-level indentation marker.
const DefaultIndent = "    "

const (
	unexpectedPrefix = "ERROR unexpected tag: "
	unclosedPrefix   = "ERROR unclosed tag: "
)

// Line is one entry of a validation transcript.
type Line interface{ isLine() }

// TagLine is a tag that fit the structure, rendered at Depth.
type TagLine struct {
	Tag   Tag
	Depth int
}

func (TagLine) isLine() {}

// UnexpectedTagLine is a closing tag that did not close the innermost open tag,
// or that arrived with nothing open.
type UnexpectedTagLine struct {
	Tag Tag
}

func (UnexpectedTagLine) isLine() {}

// UnclosedTagLine is an opening tag still open at end of input.
type UnclosedTagLine struct {
	Tag Tag
}

func (UnclosedTagLine) isLine() {}

// ===== Sink =====

// LineSink receives the lines of a validation transcript in order.
type LineSink interface {
	OnLine(l Line)
}

// LineSinkFunc adapts a function to LineSink.
type LineSinkFunc func(l Line)

// OnLine calls f(l).
func (f LineSinkFunc) OnLine(l Line) { f(l) }

// Render formats l the way TextSink writes it, without the trailing newline.
func Render(l Line, indent string) string {
	switch v := l.(type) {
	case TagLine:
		return strings.Repeat(indent, v.Depth) + v.Tag.String()
	case UnexpectedTagLine:
		return unexpectedPrefix + v.Tag.String()
	case UnclosedTagLine:
		return unclosedPrefix + v.Tag.String()
	default:
		return ""
	}
}

// TextSink writes each line to W. Error lines are never indented.
// The first write error is kept in Err and later lines are dropped.
type TextSink struct {
	W      io.Writer
	Indent string
	Err    error
}

// NewTextSink returns a TextSink using indent, or DefaultIndent when empty.
func NewTextSink(w io.Writer, indent string) *TextSink {
	if indent == "" {
		indent = DefaultIndent
	}
	return &TextSink{W: w, Indent: indent}
}

// OnLine writes the rendered line followed by a newline.
func (s *TextSink) OnLine(l Line) {
	if s.Err != nil {
		return
	}
	_, s.Err = io.WriteString(s.W, Render(l, s.Indent)+"\n")
}

// Recorder collects lines in order.
type Recorder struct {
	Lines []Line
}

// OnLine appends l.
func (r *Recorder) OnLine(l Line) { r.Lines = append(r.Lines, l) }

// Strings renders the recorded lines with indent.
func (r *Recorder) Strings(indent string) []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = Render(l, indent)
	}
	return out
}

// Summary counts what a validation pass reported.
type Summary struct {
	Tags       int // tags consumed
	Unexpected int // unexpected closing tags
	Unclosed   int // tags left open at end of input
	MaxDepth   int // deepest nesting reached
}

// Valid reports whether the pass produced no error lines.
func (s Summary) Valid() bool {
	return s.Unexpected == 0 && s.Unclosed == 0
}
