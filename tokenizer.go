package tagnest

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TagSink receives tags in document order.
type TagSink interface {
	OnTag(tag Tag, pos Position)
}

// TagSinkFunc adapts a function to TagSink.
type TagSinkFunc func(tag Tag, pos Position)

// OnTag calls f(tag, pos).
func (f TagSinkFunc) OnTag(tag Tag, pos Position) { f(tag, pos) }

// Tokenizer splits markup into tags. Text, comments, declarations and
// processing instructions are skipped.
type Tokenizer struct {
	void    []string
	lenient bool
	log     *zap.Logger
}

// NewTokenizer creates a strict tokenizer with no void elements.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{log: zap.NewNop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

var (
	// <Tag attr="x">
	openTagRe = regexp.MustCompile(`(?s)^<([A-Za-z][\w.\-:]*)(?:\s[^>]*)?>$`)
	// <Tag .../>
	selfCloseRe = regexp.MustCompile(`(?s)^<([A-Za-z][\w.\-:]*)(?:\s[^>]*)?/\s*>$`)
	// </Tag>
	closeTagRe = regexp.MustCompile(`(?s)^</\s*([A-Za-z][\w.\-:]*)\s*>$`)
	// name of a tag that never completed
	partialNameRe = regexp.MustCompile(`^</?\s*([A-Za-z][\w.\-:]*)`)
)

const maxContext = 60

type scanState struct {
	buf bytes.Buffer
	pos Position
}

// consume drops n bytes from the buffer and advances the position.
func (s *scanState) consume(n int) {
	s.pos = s.pos.advance(s.buf.Next(n))
}

// Scan reads r in chunks and sends every complete tag to sink.
// At EOF the buffer is drained; markup left incomplete is a
// *MalformedTagError unless the tokenizer is lenient.
func (t *Tokenizer) Scan(r io.Reader, sink TagSink) error {
	br := bufio.NewReader(r)
	st := &scanState{pos: Position{Line: 1, Column: 1}}
	chunk := make([]byte, 4096)

	for {
		n, err := br.Read(chunk)
		if n > 0 {
			st.buf.Write(chunk[:n])
			for t.tryExtract(st, sink) {
				// keep extracting while the buffer holds complete units
			}
		}
		if errors.Is(err, io.EOF) {
			return t.finish(st)
		}
		if err != nil {
			return err
		}
	}
}

// Tokenize returns the tags found in s.
func (t *Tokenizer) Tokenize(s string) ([]Tag, error) {
	var tags []Tag
	err := t.Scan(strings.NewReader(s), TagSinkFunc(func(tag Tag, _ Position) {
		tags = append(tags, tag)
	}))
	var me *MalformedTagError
	if errors.As(err, &me) {
		return tags, NewMalformedTagError(me.Pos, me.TagName, me.Message, s)
	}
	return tags, err
}

// Tokenize splits s with a default tokenizer.
func Tokenize(s string) ([]Tag, error) {
	return NewTokenizer().Tokenize(s)
}

func (t *Tokenizer) finish(st *scanState) error {
	if st.buf.Len() == 0 {
		return nil
	}
	rest := st.buf.Bytes()
	if !startsMarkup(rest) {
		// a trailing '<' with nothing after it is text
		st.consume(len(rest))
		return nil
	}
	if t.lenient {
		t.log.Debug("dropping incomplete markup at end of input", zap.Stringer("pos", st.pos))
		st.buf.Reset()
		return nil
	}
	var name string
	if m := partialNameRe.FindSubmatch(rest); m != nil {
		name = string(m[1])
	}
	snippet := string(rest)
	if len(snippet) > maxContext {
		n := maxContext
		for n > 0 && !utf8.RuneStart(snippet[n]) {
			n--
		}
		snippet = snippet[:n] + "..."
	}
	return &MalformedTagError{
		ParseError: ParseError{
			Pos:     st.pos,
			Message: "unterminated markup at end of input",
			Context: snippet,
		},
		TagName: name,
	}
}

// tryExtract consumes one unit from the front of the buffer: a run of text,
// a comment, a declaration or a tag. It reports false when the buffer needs
// more input.
func (t *Tokenizer) tryExtract(st *scanState, sink TagSink) bool {
	b := st.buf.Bytes()
	if len(b) == 0 {
		return false
	}

	// 1) Text up to the next '<'
	if b[0] != '<' {
		next := bytes.IndexByte(b, '<')
		if next < 0 {
			next = len(b)
		}
		st.consume(next)
		return true
	}
	if len(b) < 2 {
		return false
	}

	// 2) Comment <!-- ... -->
	if bytes.HasPrefix(b, []byte("<!--")) {
		end := bytes.Index(b[4:], []byte("-->"))
		if end < 0 {
			return false
		}
		t.log.Debug("skipping comment", zap.Stringer("pos", st.pos))
		st.consume(4 + end + 3)
		return true
	}
	if len("<!--") > len(b) && bytes.HasPrefix([]byte("<!--"), b) {
		return false
	}

	// 3) Declaration <!DOCTYPE ...> or processing instruction <?xml ...?>
	if b[1] == '!' || b[1] == '?' {
		end := bytes.IndexByte(b, '>')
		if end < 0 {
			return false
		}
		t.log.Debug("skipping declaration", zap.Stringer("pos", st.pos))
		st.consume(end + 1)
		return true
	}

	// 4) A '<' that cannot start a tag is text
	if !startsTag(b[1:]) {
		st.consume(1)
		return true
	}

	// 5) Tag. A second '<' before the closing '>' means the first one was text.
	end := bytes.IndexByte(b, '>')
	limit := end
	if limit < 0 {
		limit = len(b)
	}
	if inner := bytes.IndexByte(b[1:limit], '<'); inner >= 0 {
		st.consume(inner + 1)
		return true
	}
	if end < 0 {
		return false
	}
	raw := b[:end+1]
	pos := st.pos
	tag, ok := t.classify(raw)
	if !ok {
		t.log.Debug("skipping unrecognised tag", zap.ByteString("raw", raw), zap.Stringer("pos", pos))
		st.consume(1)
		return true
	}
	st.consume(end + 1)
	sink.OnTag(tag, pos)
	return true
}

func (t *Tokenizer) classify(raw []byte) (Tag, bool) {
	if m := closeTagRe.FindSubmatch(raw); m != nil {
		return Tag{element: string(m[1]), kind: KindClose}, true
	}
	if m := selfCloseRe.FindSubmatch(raw); m != nil {
		return Tag{element: string(m[1]), kind: KindSelfClosing}, true
	}
	if m := openTagRe.FindSubmatch(raw); m != nil {
		name := string(m[1])
		if t.isVoid(name) {
			return Tag{element: name, kind: KindSelfClosing}, true
		}
		return Tag{element: name, kind: KindOpen}, true
	}
	return Tag{}, false
}

func (t *Tokenizer) isVoid(name string) bool {
	return slices.ContainsFunc(t.void, func(v string) bool { return sameElement(v, name) })
}

// startsMarkup reports whether b, which begins with '<', can begin a tag,
// comment, declaration or processing instruction.
func startsMarkup(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return b[1] == '!' || b[1] == '?' || startsTag(b[1:])
}

// startsTag reports whether b, the bytes after '<', can begin a tag.
func startsTag(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if b[0] == '/' {
		b = bytes.TrimLeft(b[1:], " \t\r\n")
		if len(b) == 0 {
			// "</" with the name still to come
			return true
		}
	}
	c := b[0]
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
