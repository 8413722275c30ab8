package tagnest

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type chunkedReader struct {
	data   string
	chunks []int
	idx    int
	pos    int
}

func newChunkedReader(s string, chunks []int) *chunkedReader {
	return &chunkedReader{data: s, chunks: chunks}
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	if c.idx >= len(c.chunks) {
		c.chunks = append(c.chunks, 8)
	}
	n := c.chunks[c.idx]
	c.idx++
	if c.pos+n > len(c.data) {
		n = len(c.data) - c.pos
	}
	copy(p, c.data[c.pos:c.pos+n])
	c.pos += n
	return n, nil
}

type positionedTag struct {
	Tag Tag
	Pos Position
}

type tagRecorder struct{ tags []positionedTag }

func (r *tagRecorder) OnTag(tag Tag, pos Position) {
	r.tags = append(r.tags, positionedTag{Tag: tag, Pos: pos})
}

func (r *tagRecorder) names() []string {
	out := make([]string, len(r.tags))
	for i, pt := range r.tags {
		out[i] = pt.Tag.String()
	}
	return out
}

func tagStrings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

func Test_Tokenizer(t *testing.T) {
	t.Run("should classify open, close and self-closing tags", func(t *testing.T) {
		tags, err := Tokenize(`<div class="x"><p>hi</p><br/><img src="a.png" /></div>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"<div>", "<p>", "</p>", "<br/>", "<img/>", "</div>"}, tagStrings(tags))
	})

	t.Run("should skip comments, declarations and processing instructions", func(t *testing.T) {
		tags, err := Tokenize(`<?xml version="1.0"?><!DOCTYPE html><!-- <b> --><a></a>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"<a>", "</a>"}, tagStrings(tags))
	})

	t.Run("should treat a bare less-than sign as text", func(t *testing.T) {
		tags, err := Tokenize(`1 < 2 and <b>x</b>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"<b>", "</b>"}, tagStrings(tags))
	})

	t.Run("should treat a less-than sign followed by another before the next greater-than as text", func(t *testing.T) {
		tags, err := Tokenize("x <y and <b>bold</b>")
		require.NoError(t, err)
		assert.Equal(t, []string{"<b>", "</b>"}, tagStrings(tags))

		tags, err = Tokenize("<p>1 <</p>")
		require.NoError(t, err)
		assert.Equal(t, []string{"<p>", "</p>"}, tagStrings(tags))
	})

	t.Run("should not let a stray less-than sign swallow a tag across chunks", func(t *testing.T) {
		input := "<p>x <y and <b>bold</b></p>"
		for _, chunks := range [][]int{{1}, {6, 2, 3}, {9}} {
			got := &tagRecorder{}
			require.NoError(t, NewTokenizer().Scan(newChunkedReader(input, chunks), got))
			assert.Equal(t, []string{"<p>", "<b>", "</b>", "</p>"}, got.names(), "chunks %v", chunks)
		}
	})

	t.Run("should treat a trailing less-than sign as text", func(t *testing.T) {
		tags, err := Tokenize("<p>a</p> 1 <")
		require.NoError(t, err)
		assert.Equal(t, []string{"<p>", "</p>"}, tagStrings(tags))
	})

	t.Run("should count columns in runes", func(t *testing.T) {
		rec := &tagRecorder{}
		require.NoError(t, NewTokenizer().Scan(strings.NewReader("ééé<b>\né<i>"), rec))
		require.Len(t, rec.tags, 2)
		assert.Equal(t, Position{Line: 1, Column: 4}, rec.tags[0].Pos)
		assert.Equal(t, Position{Line: 2, Column: 2}, rec.tags[1].Pos)
	})

	t.Run("should keep truncated context valid UTF-8", func(t *testing.T) {
		input := "<p " + strings.Repeat("é", 40)
		err := NewTokenizer().Scan(strings.NewReader(input), &tagRecorder{})
		var me *MalformedTagError
		require.ErrorAs(t, err, &me)
		assert.True(t, utf8.ValidString(me.Context))
		assert.True(t, strings.HasSuffix(me.Context, "..."))
		assert.Equal(t, "p", me.TagName)
	})

	t.Run("should accept whitespace inside closing tags", func(t *testing.T) {
		tags, err := Tokenize("<b></ b >")
		require.NoError(t, err)
		assert.Equal(t, []Tag{MustTag("b", KindOpen), MustTag("b", KindClose)}, tags)
	})

	t.Run("should skip markup that is not a tag", func(t *testing.T) {
		tags, err := Tokenize(`<a"x><i></i>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"<i>", "</i>"}, tagStrings(tags))
	})

	t.Run("should preserve element case", func(t *testing.T) {
		tags, err := Tokenize(`<HTML></html>`)
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "HTML", tags[0].Element())
		assert.True(t, tags[1].Matches(tags[0]))
	})

	t.Run("should report tag positions", func(t *testing.T) {
		rec := &tagRecorder{}
		require.NoError(t, NewTokenizer().Scan(strings.NewReader("<a>\n  <b>x</b>"), rec))
		require.Len(t, rec.tags, 3)
		assert.Equal(t, Position{Line: 1, Column: 1}, rec.tags[0].Pos)
		assert.Equal(t, Position{Line: 2, Column: 3}, rec.tags[1].Pos)
		assert.Equal(t, Position{Line: 2, Column: 7}, rec.tags[2].Pos)
	})

	t.Run("should treat listed void elements as self-closing", func(t *testing.T) {
		tags, err := NewTokenizer(WithVoidElements("BR", "")).Tokenize(`<p>a<br>b</p>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"<p>", "<br/>", "</p>"}, tagStrings(tags))
	})

	t.Run("should fail on an unterminated tag at end of input", func(t *testing.T) {
		tags, err := Tokenize("<p>text <b")
		assert.Equal(t, []string{"<p>"}, tagStrings(tags))
		var me *MalformedTagError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "b", me.TagName)
		assert.Equal(t, Position{Line: 1, Column: 9}, me.Pos)
		assert.Contains(t, me.Context, "-> 1: <p>text <b")
	})

	t.Run("should fail on an unterminated comment", func(t *testing.T) {
		_, err := Tokenize("<a><!-- never closed")
		var me *MalformedTagError
		require.ErrorAs(t, err, &me)
		assert.Empty(t, me.TagName)
	})

	t.Run("should drop incomplete markup when lenient", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		tok := NewTokenizer(WithLenientTokenizer(), WithTokenizerLogger(zap.New(core)))
		tags, err := tok.Tokenize("<p>text <b")
		require.NoError(t, err)
		assert.Equal(t, []string{"<p>"}, tagStrings(tags))
		assert.Equal(t, 1, logs.FilterMessage("dropping incomplete markup at end of input").Len())
	})

	t.Run("should return reader errors", func(t *testing.T) {
		boom := errors.New("boom")
		err := NewTokenizer().Scan(errReader{err: boom}, &tagRecorder{})
		assert.ErrorIs(t, err, boom)
	})
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func Test_Tokenizer_Streaming(t *testing.T) {
	input := strings.Join([]string{
		"<!DOCTYPE html>\n",
		"<html lang=\"en\">\n",
		"<!-- a comment with <tags> inside -->\n",
		"<body>\n",
		"  <p>1 < 2</p>\n",
		"  <img src=\"x.png\" alt=\"x\"/>\n",
		"</body>\n",
		"</html>\n",
	}, "")

	whole := &tagRecorder{}
	require.NoError(t, NewTokenizer().Scan(strings.NewReader(input), whole))
	require.Equal(t, []string{"<html>", "<body>", "<p>", "</p>", "<img/>", "</body>", "</html>"}, whole.names())

	for _, chunks := range [][]int{{1}, {3, 1, 7}, {50, 2, 100}} {
		got := &tagRecorder{}
		require.NoError(t, NewTokenizer().Scan(newChunkedReader(input, chunks), got))
		assert.Equal(t, whole.tags, got.tags, "chunks %v", chunks)
	}
}
