package tagnest

import (
	"fmt"
	"strings"
)

// Kind classifies a tag occurrence.
type Kind int

const (
	KindOpen        Kind = iota // <name>
	KindClose                   // </name>
	KindSelfClosing             // <name/>
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindSelfClosing:
		return "self-closing"
	default:
		return "unknown"
	}
}

// Tag is one lexical occurrence of a markup tag. The zero Tag is not valid;
// use NewTag, NewOpenTag or NewTagFlags.
type Tag struct {
	element string
	kind    Kind
}

// NewTag creates a tag with the given element name and kind.
func NewTag(element string, kind Kind) (Tag, error) {
	if element == "" {
		return Tag{}, NewArgumentError("NewTag", "element", "element name cannot be empty")
	}
	if kind < KindOpen || kind > KindSelfClosing {
		return Tag{}, NewArgumentError("NewTag", "kind", fmt.Sprintf("unknown tag kind %d", int(kind)))
	}
	return Tag{element: element, kind: kind}, nil
}

// NewOpenTag creates an opening, non self-closing tag.
func NewOpenTag(element string) (Tag, error) {
	return NewTag(element, KindOpen)
}

// NewTagFlags creates a tag from open/self-closing flags.
// A self-closing tag ignores isOpen.
func NewTagFlags(element string, isOpen, isSelfClosing bool) (Tag, error) {
	switch {
	case isSelfClosing:
		return NewTag(element, KindSelfClosing)
	case isOpen:
		return NewTag(element, KindOpen)
	default:
		return NewTag(element, KindClose)
	}
}

// MustTag is like NewTag but panics on error. Intended for fixtures.
func MustTag(element string, kind Kind) Tag {
	t, err := NewTag(element, kind)
	if err != nil {
		panic(err)
	}
	return t
}

// Element returns the element name as written.
func (t Tag) Element() string { return t.element }

// Kind returns whether t opens, closes or self-closes.
func (t Tag) Kind() Kind { return t.kind }

// IsOpenTag reports whether t is an opening tag. Self-closing tags report true.
func (t Tag) IsOpenTag() bool { return t.kind != KindClose }

// IsSelfClosing reports whether t neither nests nor needs a closing tag.
func (t Tag) IsSelfClosing() bool { return t.kind == KindSelfClosing }

// IsZero reports whether t is the zero Tag.
func (t Tag) IsZero() bool { return t.element == "" }

// Matches reports whether t and other name the same element, ignoring case.
func (t Tag) Matches(other Tag) bool {
	return sameElement(t.element, other.element)
}

// Equal reports whether t and other have the same element (ignoring case) and kind.
func (t Tag) Equal(other Tag) bool {
	return t.kind == other.kind && t.Matches(other)
}

// String renders the tag as <name>, </name> or <name/>.
func (t Tag) String() string {
	var sb strings.Builder
	sb.Grow(len(t.element) + 3)
	sb.WriteByte('<')
	if t.kind == KindClose {
		sb.WriteByte('/')
	}
	sb.WriteString(t.element)
	if t.kind == KindSelfClosing {
		sb.WriteByte('/')
	}
	sb.WriteByte('>')
	return sb.String()
}

// sameElement is the single case-insensitive comparison used for close-tag
// pairing and removal.
func sameElement(a, b string) bool {
	return strings.EqualFold(a, b)
}
