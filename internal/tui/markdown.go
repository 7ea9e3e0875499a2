package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders answers with glamour, caching per width.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdownRenderer(style string) *markdownRenderer {
	return &markdownRenderer{style: nullCoalesce(style, "dark"), cache: map[string]string{}}
}

func (r *markdownRenderer) render(text string, width int) string {
	width = maxInt(20, width)
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStylePath(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return wrapText(text, width)
		}
		r.renderer = renderer
		r.width = width
		r.cache = map[string]string{}
	}
	if cached, ok := r.cache[text]; ok {
		return cached
	}
	out, err := r.renderer.Render(text)
	if err != nil {
		return wrapText(text, width)
	}
	out = strings.Trim(out, "\n")
	r.cache[text] = out
	return out
}
