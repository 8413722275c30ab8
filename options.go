package tagnest

import "go.uber.org/zap"

// Option configures a Validator.
type Option func(*Validator)

// WithIndent sets the per-level indentation marker used by Validate.
// An empty marker keeps DefaultIndent.
func WithIndent(marker string) Option {
	return func(v *Validator) {
		if marker != "" {
			v.indent = marker
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l == nil {
			l = zap.NewNop()
		}
		v.log = l
	}
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithLenientTokenizer makes the tokenizer drop incomplete markup at end of
// input instead of failing with a *MalformedTagError.
func WithLenientTokenizer() TokenizerOption {
	return func(t *Tokenizer) { t.lenient = true }
}

// WithVoidElements treats opening tags for the named elements as
// self-closing, e.g. "br", "img". Names are compared ignoring case.
func WithVoidElements(names ...string) TokenizerOption {
	return func(t *Tokenizer) {
		for _, n := range names {
			if n != "" {
				t.void = append(t.void, n)
			}
		}
	}
}

// WithTokenizerLogger sets the tokenizer logger. A nil logger disables logging.
func WithTokenizerLogger(l *zap.Logger) TokenizerOption {
	return func(t *Tokenizer) {
		if l == nil {
			l = zap.NewNop()
		}
		t.log = l
	}
}
