package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grahms/tagnest"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tagnest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file")
	indent := fs.String("indent", "", "indentation marker per nesting level (default four spaces)")
	ignore := fs.String("ignore", "", "comma-separated elements to remove before validating")
	void := fs.String("void", "", "comma-separated elements whose opening tags never nest")
	lenient := fs.Bool("lenient", false, "ignore incomplete markup at end of input")
	logLevel := fs.String("log-level", "error", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tagnest [options] <file.html|->\n\n")
		fmt.Fprintln(stderr, "Checks tag nesting and prints the indented structure with inline errors.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "error: exactly one input file argument is required")
		fs.Usage()
		return 2
	}

	logger, err := newLogger(*logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *indent != "" {
		cfg.Indent = *indent
	}
	cfg.Ignore = append(cfg.Ignore, splitList(*ignore)...)
	cfg.Void = append(cfg.Void, splitList(*void)...)
	cfg.Lenient = cfg.Lenient || *lenient

	in, name, closeIn, err := openInput(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closeIn()

	tokOpts := append(cfg.TokenizerOptions(), tagnest.WithTokenizerLogger(logger))
	v := tagnest.New(append(cfg.Options(), tagnest.WithLogger(logger))...)
	sink, addErr := queueTags(v)
	err = tagnest.NewTokenizer(tokOpts...).Scan(in, sink)
	if err == nil {
		err = addErr()
	}
	if err != nil {
		fmt.Fprintf(stderr, "error reading %s: %v\n", name, err)
		return 1
	}
	if err := cfg.Apply(v); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	sum, err := v.Validate(stdout)
	if err != nil {
		fmt.Fprintf(stderr, "error writing output: %v\n", err)
		return 1
	}
	logger.Info("validated", zap.String("input", name), zap.Int("tags", sum.Tags),
		zap.Int("unexpected", sum.Unexpected), zap.Int("unclosed", sum.Unclosed))
	if !sum.Valid() {
		return 1
	}
	return 0
}

// queueTags returns a sink that adds every tag to v, and a func reporting
// the first tag v rejected.
func queueTags(v *tagnest.Validator) (tagnest.TagSink, func() error) {
	var first error
	sink := tagnest.TagSinkFunc(func(tag tagnest.Tag, _ tagnest.Position) {
		if err := v.AddTag(tag); err != nil && first == nil {
			first = err
		}
	})
	return sink, func() error { return first }
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func loadConfig(path string) (tagnest.Config, error) {
	if path == "" {
		return tagnest.Config{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return tagnest.Config{}, err
	}
	defer f.Close()
	return tagnest.LoadConfig(f)
}

func openInput(arg string, stdin io.Reader) (io.Reader, string, func(), error) {
	if arg == "-" {
		return stdin, "<stdin>", func() {}, nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, "", nil, err
	}
	return f, arg, func() { _ = f.Close() }, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
