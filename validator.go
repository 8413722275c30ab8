package tagnest

import (
	"io"
	"slices"

	"go.uber.org/zap"
)

// Validator holds an ordered queue of tags and checks their nesting.
//
// Tags are validated in insertion order. Validation consumes the queue:
// after Validate or ValidateTo the validator is empty and a second call is
// an empty pass. A Validator is not safe for concurrent use.
type Validator struct {
	tags   []Tag
	indent string
	log    *zap.Logger
}

// New creates an empty validator.
func New(opts ...Option) *Validator {
	v := &Validator{indent: DefaultIndent, log: zap.NewNop()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// NewFromTags creates a validator holding a copy of tags.
func NewFromTags(tags []Tag, opts ...Option) (*Validator, error) {
	for _, t := range tags {
		if t.IsZero() {
			return nil, NewArgumentError("NewFromTags", "tags", "tags cannot contain an empty tag")
		}
	}
	v := New(opts...)
	v.tags = slices.Clone(tags)
	return v, nil
}

// AddTag appends tag to the end of the queue.
func (v *Validator) AddTag(tag Tag) error {
	if tag.IsZero() {
		return NewArgumentError("AddTag", "tag", "tag to be added cannot be empty")
	}
	v.tags = append(v.tags, tag)
	return nil
}

// Tags returns a copy of the queued tags.
func (v *Validator) Tags() []Tag {
	return slices.Clone(v.tags)
}

// Len returns the number of queued tags.
func (v *Validator) Len() int { return len(v.tags) }

// RemoveAll removes every queued tag whose element matches element,
// ignoring case. The remaining tags keep their order.
func (v *Validator) RemoveAll(element string) error {
	if element == "" {
		return NewArgumentError("RemoveAll", "element", "element to be removed cannot be empty")
	}
	before := len(v.tags)
	v.tags = slices.DeleteFunc(v.tags, func(t Tag) bool {
		return sameElement(t.element, element)
	})
	if removed := before - len(v.tags); removed > 0 {
		v.log.Debug("removed tags", zap.String("element", element), zap.Int("count", removed))
	}
	return nil
}

// Take moves the queued tags out of the validator, leaving it empty.
func (v *Validator) Take() []Tag {
	tags := v.tags
	v.tags = nil
	return tags
}

// Validate drains the queue and writes the transcript to w, one line per
// tag or error. Structural problems are reported in the transcript and the
// Summary; the error is only for failed writes.
func (v *Validator) Validate(w io.Writer) (Summary, error) {
	sink := NewTextSink(w, v.indent)
	sum := v.ValidateTo(sink)
	return sum, sink.Err
}

// ValidateTo drains the queue and emits the transcript to sink.
func (v *Validator) ValidateTo(sink LineSink) Summary {
	sum := Check(v.Take(), sink)
	v.log.Debug("validation finished",
		zap.Int("tags", sum.Tags),
		zap.Int("max_depth", sum.MaxDepth),
	)
	if !sum.Valid() {
		v.log.Warn("markup is not well nested",
			zap.Int("unexpected", sum.Unexpected),
			zap.Int("unclosed", sum.Unclosed),
		)
	}
	return sum
}

// Check runs one stack-based pass over tags, in order, emitting a line per
// tag and per error. An opening tag is emitted at the current depth before
// the depth grows; its matching close is emitted after the depth shrinks, so
// both appear at the same depth. A closing tag that does not match the
// innermost open tag is reported and otherwise ignored. Tags still open at
// the end are reported innermost first.
func Check(tags []Tag, sink LineSink) Summary {
	var (
		open  []Tag
		depth int
		sum   = Summary{Tags: len(tags)}
	)

	for _, tag := range tags {
		switch tag.kind {
		case KindOpen:
			open = append(open, tag)
			sink.OnLine(TagLine{Tag: tag, Depth: depth})
			depth++
			sum.MaxDepth = max(sum.MaxDepth, depth)
		case KindClose:
			if n := len(open); n > 0 && tag.Matches(open[n-1]) {
				open = open[:n-1]
				depth--
				sink.OnLine(TagLine{Tag: tag, Depth: depth})
				continue
			}
			sum.Unexpected++
			sink.OnLine(UnexpectedTagLine{Tag: tag})
		case KindSelfClosing:
			sink.OnLine(TagLine{Tag: tag, Depth: depth})
		}
	}

	for i := len(open) - 1; i >= 0; i-- {
		sum.Unclosed++
		sink.OnLine(UnclosedTagLine{Tag: open[i]})
	}

	return sum
}
