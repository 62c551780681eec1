package highlight

import (
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the style built from [DefaultConfig].
// It's registered with Chroma as "kotpad-kotlin".
var DefaultStyle = mustNewStyle(DefaultConfig())

func init() {
	styles.Register(DefaultStyle)
}

func mustNewStyle(cfg *Config) *chroma.Style {
	style, err := NewStyle(cfg)
	if err != nil {
		panic(err)
	}
	return style
}

// NewStyle builds a Chroma style from the colors in cfg.
// Missing or malformed colors use their defaults.
func NewStyle(cfg *Config) (*chroma.Style, error) {
	name := "kotpad"
	if cfg != nil && cfg.Language != "" {
		name += "-" + cfg.Language
	}

	entries := chroma.StyleEntries{
		// Background carries the base foreground color
		// so that every token type inherits it.
		chroma.Background: cfg.Color(Base),
	}
	for _, class := range Classes {
		entries[class.TokenType()] = cfg.Color(class)
	}
	return chroma.NewStyle(name, entries)
}
