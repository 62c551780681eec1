package highlight

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"

	"braces.dev/errtrace"
)

// Config describes how to highlight one language.
//
// A Config must not be modified after it is constructed.
// To change a configuration, build a new one and replace the old one
// wholesale; [Cache] relies on this.
type Config struct {
	// Language is a human-readable name for the language.
	Language string `json:"language"`

	// Keywords highlighted as whole words.
	// Order and duplicates are irrelevant.
	Keywords []string `json:"keywords"`

	// Comment is the line comment marker, e.g. "//".
	// Comments run to the end of the line.
	// Comments are not highlighted if this is empty.
	Comment string `json:"comment"`

	// StringDelimiters are matched in order.
	// Each should be a single character.
	StringDelimiters []string `json:"stringDelimiters"`

	// Colors maps token classes to "#RRGGBB" colors.
	// Missing classes use [DefaultColor].
	Colors map[Class]string `json:"colors"`
}

var _hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var _defaultColors = map[Class]string{
	Base:    "#1F2328",
	Keyword: "#CF222E",
	Comment: "#6E7781",
	String:  "#0A3069",
	Number:  "#0550AE",
}

var _kotlinKeywords = []string{
	"abstract", "as", "break", "by", "catch", "class", "companion",
	"const", "constructor", "continue", "data", "do", "else", "enum",
	"false", "finally", "for", "fun", "get", "if", "import", "in",
	"init", "inline", "interface", "internal", "is", "lateinit", "null",
	"object", "open", "override", "package", "private", "protected",
	"public", "return", "sealed", "set", "super", "suspend", "this",
	"throw", "true", "try", "typealias", "val", "var", "when", "where",
	"while",
}

// DefaultConfig returns the built-in Kotlin configuration.
// Each call returns a fresh value.
func DefaultConfig() *Config {
	return &Config{
		Language:         "kotlin",
		Keywords:         slices.Clone(_kotlinKeywords),
		Comment:          "//",
		StringDelimiters: []string{`"`, "'"},
		Colors:           maps.Clone(_defaultColors),
	}
}

// ValidColor reports whether s is a color of the form "#RRGGBB".
func ValidColor(s string) bool {
	return _hexColorRe.MatchString(s)
}

// DefaultColor returns the fallback color for a token class.
func DefaultColor(c Class) string {
	if color, ok := _defaultColors[c]; ok {
		return color
	}
	return _defaultColors[Base]
}

// Color returns the color configured for the given class,
// falling back to [DefaultColor] if it's missing or malformed.
func (cfg *Config) Color(c Class) string {
	if cfg != nil {
		if color, ok := cfg.Colors[c]; ok && ValidColor(color) {
			return color
		}
	}
	return DefaultColor(c)
}

// Clone returns a deep copy of this configuration.
// Cloning a nil configuration returns [DefaultConfig].
func (cfg *Config) Clone() *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	out := *cfg
	out.Keywords = slices.Clone(cfg.Keywords)
	out.StringDelimiters = slices.Clone(cfg.StringDelimiters)
	out.Colors = maps.Clone(cfg.Colors)
	return &out
}

// WithColors returns a copy of this configuration
// with the given colors replacing the configured ones.
// A nil configuration is treated as [DefaultConfig].
func (cfg *Config) WithColors(colors map[Class]string) *Config {
	out := cfg.Clone()
	if out.Colors == nil {
		out.Colors = make(map[Class]string, len(colors))
	}
	maps.Copy(out.Colors, colors)
	return out
}

// WithKeywords returns a copy of this configuration
// with additional keywords.
// A nil configuration is treated as [DefaultConfig].
func (cfg *Config) WithKeywords(keywords ...string) *Config {
	out := cfg.Clone()
	out.Keywords = append(out.Keywords, keywords...)
	return out
}

// configJSON mirrors Config, but distinguishes
// missing keys from empty values.
type configJSON struct {
	Language         *string          `json:"language"`
	Keywords         *[]string        `json:"keywords"`
	Comment          *string          `json:"comment"`
	StringDelimiters *[]string        `json:"stringDelimiters"`
	Colors           map[Class]string `json:"colors"`
}

// ParseConfig parses a JSON highlighting configuration.
//
// Keys missing from the document take their values from [DefaultConfig].
// Colors for unknown classes, and colors that are not "#RRGGBB",
// are dropped so that the class falls back to its default color.
//
// An error is returned only if the document is not a JSON object
// of the expected shape.
// Callers should keep their previous configuration in that case.
func ParseConfig(data []byte) (*Config, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, errtrace.New("highlight config must be a JSON object")
	}

	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errtrace.Errorf("parse highlight config: %w", err)
	}

	cfg := DefaultConfig()
	if raw.Language != nil {
		cfg.Language = *raw.Language
	}
	if raw.Keywords != nil {
		cfg.Keywords = *raw.Keywords
	}
	if raw.Comment != nil {
		cfg.Comment = *raw.Comment
	}
	if raw.StringDelimiters != nil {
		cfg.StringDelimiters = *raw.StringDelimiters
	}
	if raw.Colors != nil {
		cfg.Colors = make(map[Class]string, len(raw.Colors))
		for class, color := range raw.Colors {
			if class.Valid() && ValidColor(color) {
				cfg.Colors[class] = color
			}
		}
	}
	return cfg, nil
}

// LoadConfig reads and parses the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errtrace.Errorf("%v: %w", path, err)
	}
	return cfg, nil
}

// WriteTo writes this configuration to w as indented JSON.
// The output can be read back with [ParseConfig].
func (cfg *Config) WriteTo(w io.Writer) (int64, error) {
	bs, err := json.MarshalIndent(cfg.normalize(), "", "  ")
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	bs = append(bs, '\n')

	n, err := w.Write(bs)
	return int64(n), errtrace.Wrap(err)
}

// normalize returns a copy of the configuration with nil slices and maps
// replaced by empty ones, so that serializing it
// doesn't produce nulls.
func (cfg *Config) normalize() *Config {
	out := *cfg
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if out.StringDelimiters == nil {
		out.StringDelimiters = []string{}
	}
	if out.Colors == nil {
		out.Colors = map[Class]string{}
	}
	return &out
}
