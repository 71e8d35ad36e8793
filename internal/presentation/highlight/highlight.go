package highlight

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// PlainText is the language tag for files with no known lexer.
const PlainText = "text"

// Theme selects a light or dark color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme accepts "dark" or "light".
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("unknown theme %q (valid: dark, light)", s)
	}
}

var themeStyles = map[Theme]string{
	ThemeDark:  "monokai",
	ThemeLight: "github",
}

// Detect returns a language tag for path based on its file name. Unknown
// files map to PlainText.
func Detect(path string) string {
	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return PlainText
	}

	lexer := lexers.Match(name)
	if lexer == nil {
		return PlainText
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}

// Highlighter renders source text with ANSI colors
type Highlighter struct {
	formatter chroma.Formatter

	mu     sync.Mutex
	lexers map[string]chroma.Lexer
}

// NewHighlighter creates a highlighter for the named chroma formatter
// ("terminal256", "terminal16m", "noop"). Unknown names fall back to
// terminal256.
func NewHighlighter(formatterName string) *Highlighter {
	f, ok := formatters.Registry[formatterName]
	if !ok {
		f = formatters.TTY256
	}
	return &Highlighter{
		formatter: f,
		lexers:    make(map[string]chroma.Lexer),
	}
}

func (h *Highlighter) lexer(lang string) chroma.Lexer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.lexers[lang]; ok {
		return l
	}
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)
	h.lexers[lang] = l
	return l
}

// Render highlights text as lang using the theme's style.
func (h *Highlighter) Render(text, lang string, theme Theme) (string, error) {
	styleName, ok := themeStyles[theme]
	if !ok {
		styleName = themeStyles[ThemeDark]
	}
	style := styles.Get(styleName)

	iterator, err := h.lexer(lang).Tokenise(nil, text)
	if err != nil {
		return text, fmt.Errorf("tokenising %s: %w", lang, err)
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, style, iterator); err != nil {
		return text, fmt.Errorf("formatting %s: %w", lang, err)
	}
	return sb.String(), nil
}
