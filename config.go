package tagnest

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the validator and tokenizer options.
//
//	indent: "  "
//	ignore: [script, style]
//	void: [br, img, hr]
//	lenient: true
type Config struct {
	Indent  string   `yaml:"indent"`
	Ignore  []string `yaml:"ignore"`  // elements removed before validating
	Void    []string `yaml:"void"`    // elements whose opening tags never nest
	Lenient bool     `yaml:"lenient"` // drop incomplete markup at end of input
}

// LoadConfig decodes a YAML config. Unknown keys are rejected.
// An empty document yields the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	for i, name := range cfg.Ignore {
		if name == "" {
			return Config{}, fmt.Errorf("decode config: ignore[%d] is empty", i)
		}
	}
	return cfg, nil
}

// Options returns the validator options described by c.
func (c Config) Options() []Option {
	var opts []Option
	if c.Indent != "" {
		opts = append(opts, WithIndent(c.Indent))
	}
	return opts
}

// TokenizerOptions returns the tokenizer options described by c.
func (c Config) TokenizerOptions() []TokenizerOption {
	var opts []TokenizerOption
	if len(c.Void) > 0 {
		opts = append(opts, WithVoidElements(c.Void...))
	}
	if c.Lenient {
		opts = append(opts, WithLenientTokenizer())
	}
	return opts
}

// Apply removes every ignored element from v.
func (c Config) Apply(v *Validator) error {
	for _, name := range c.Ignore {
		if err := v.RemoveAll(name); err != nil {
			return err
		}
	}
	return nil
}
