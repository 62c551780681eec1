package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/compile"
	"github.com/kotpad/kotpad/internal/flagvalue"
	"github.com/kotpad/kotpad/internal/highlight"
	"github.com/kotpad/kotpad/internal/watch"
	"github.com/peterbourgon/ff/v3"
)

var errInvalidArguments = errors.New("invalid arguments")

// _envPrefix is prepended to flag names to find their environment variables.
const _envPrefix = "KOTPAD"

// params holds the program-level arguments for kotpad.
type params struct {
	version bool
	help    Help

	Debug     flagvalue.FileSwitch
	FlagsFile string
}

func (p *params) register(fset *flag.FlagSet) {
	fset.Var(&p.Debug, "debug", "")
	fset.StringVar(&p.FlagsFile, "flags", "", "")
	fset.BoolVar(&p.version, "version", false, "")
	fset.Var(&p.help, "help", "")
	fset.Var(&p.help, "h", "")
}

// ffOptions builds the options used to parse every command's flags.
// flagsFile is read once the root command's flags have been parsed.
func ffOptions(flagsFile *string) []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix(_envPrefix),
		ff.WithConfigFileVia(flagsFile),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithIgnoreUndefined(true),
	}
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(output)
	return fset
}

// configFlags are the flags that select a highlighting configuration.
type configFlags struct {
	Path     string
	Colors   []classColor
	Keywords []keyword
}

func (f *configFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&f.Path, "config", "", "highlighting configuration `file`")
	fset.Var(flagvalue.ListOf(&f.Colors), "color", "override a color with `class=#RRGGBB`")
	fset.Var(flagvalue.ListOf(&f.Keywords), "keyword", "highlight `word` as a keyword")
}

// Load reads the configuration file, if any,
// and applies the overrides from the command line.
func (f *configFlags) Load() (*highlight.Config, error) {
	cfg := highlight.DefaultConfig()
	if f.Path != "" {
		var err error
		cfg, err = highlight.LoadConfig(f.Path)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
	}

	if len(f.Colors) > 0 {
		colors := make(map[highlight.Class]string, len(f.Colors))
		for _, cc := range f.Colors {
			colors[cc.Class] = cc.Color
		}
		cfg = cfg.WithColors(colors)
	}

	if len(f.Keywords) > 0 {
		words := make([]string, len(f.Keywords))
		for i, kw := range f.Keywords {
			words[i] = string(kw)
		}
		cfg = cfg.WithKeywords(words...)
	}

	return cfg, nil
}

// classColor is a "class=#RRGGBB" pair.
type classColor struct {
	Class highlight.Class
	Color string
}

var _ flag.Getter = (*classColor)(nil)

func (cc *classColor) Get() any { return cc }

func (cc *classColor) String() string {
	return fmt.Sprintf("%s=%s", cc.Class, cc.Color)
}

func (cc *classColor) Set(s string) error {
	class, color, ok := strings.Cut(s, "=")
	if !ok {
		return errtrace.New("expected form 'class=#RRGGBB'")
	}

	cc.Class = highlight.Class(strings.ToLower(strings.TrimSpace(class)))
	if !cc.Class.Valid() {
		return errtrace.Errorf("unknown class %q: valid values are %q", class, highlight.Classes)
	}

	cc.Color = strings.TrimSpace(color)
	if !highlight.ValidColor(cc.Color) {
		return errtrace.Errorf("bad color %q: expected form #RRGGBB", color)
	}
	return nil
}

// keyword is a single word highlighted as a keyword.
type keyword string

var _ flag.Getter = (*keyword)(nil)

func (k *keyword) Get() any       { return string(*k) }
func (k *keyword) String() string { return string(*k) }

func (k *keyword) Set(s string) error {
	if strings.ContainsFunc(s, isSpace) {
		return errtrace.Errorf("keyword %q must not contain spaces", s)
	}
	*k = keyword(s)
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// outputFlags control how highlighted output is produced.
type outputFlags struct {
	Format  string
	Style   string
	Classes bool
	Embed   bool
	Output  string
}

func (f *outputFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&f.Format, "format", string(highlight.FormatHTML), "output `format`: html, terminal256, terminal16m, or plain")
	fset.StringVar(&f.Style, "style", "", "use the named Chroma `style` instead of the configured colors")
	fset.BoolVar(&f.Classes, "classes", false, "use CSS classes instead of inline styles in HTML")
	fset.BoolVar(&f.Embed, "embed", false, "render only the code block instead of a complete HTML page")
	fset.StringVar(&f.Output, "o", "", "write output to `file` instead of stdout")
}

// compileFlags configure the compile service client.
type compileFlags struct {
	URL            string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Advice         string
	JSON           bool
}

func (f *compileFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&f.URL, "url", compile.DefaultURL, "compile service `URL`")
	fset.DurationVar(&f.ConnectTimeout, "connect-timeout", compile.DefaultConnectTimeout, "")
	fset.DurationVar(&f.ReadTimeout, "read-timeout", compile.DefaultReadTimeout, "")
	fset.StringVar(&f.Advice, "advice", "", "troubleshooting `text` for unreachable services, or '-' for none")
	fset.BoolVar(&f.JSON, "json", false, "print the service's reply as JSON")
}

// watchFlags configure the watch command.
type watchFlags struct {
	Debounce time.Duration
}

func (f *watchFlags) register(fset *flag.FlagSet) {
	fset.DurationVar(&f.Debounce, "debounce", watch.DefaultDebounce, "wait this long after a change before rendering")
}
