package logging

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Messages may embed color tokens such as {cyan} or {225}. A token applies
// to the text after it, until the next token. Named tokens map to the
// terminal palette, numeric tokens to ANSI 256 colors. A doubled opening
// brace ({{cyan}) is the escaped form and renders as the literal token.
var markupToken = regexp.MustCompile(`\{(\{?)(white|cyan|yellow|red|green|gray|[0-9]{1,3})\}`)

var namedColors = map[string]lipgloss.Color{
	"white":  lipgloss.Color("15"),
	"cyan":   lipgloss.Color("14"),
	"yellow": lipgloss.Color("11"),
	"red":    lipgloss.Color("9"),
	"green":  lipgloss.Color("10"),
	"gray":   lipgloss.Color("8"),
}

// pastel is the cycle used by Pastelize.
var pastel = []string{"225", "217", "223", "151", "159", "153", "189"}

// Strip removes every color token from s and unescapes escaped ones.
func Strip(s string) string {
	return markupToken.ReplaceAllStringFunc(s, func(tok string) string {
		if strings.HasPrefix(tok, "{{") {
			return tok[1:]
		}
		return ""
	})
}

// Escape makes every color token in s render literally.
func Escape(s string) string {
	return markupToken.ReplaceAllStringFunc(s, func(tok string) string {
		return "{" + tok
	})
}

// Pastelize wraps each non-space rune of s in a pastel color token and
// resets to white afterwards.
func Pastelize(s string) string {
	var b strings.Builder
	i := 0
	for _, r := range s {
		if r != ' ' {
			b.WriteString("{" + pastel[i%len(pastel)] + "}")
			i++
		}
		b.WriteRune(r)
	}
	b.WriteString("{white}")
	return b.String()
}

// render styles msg with r, starting in base.
func render(r *lipgloss.Renderer, msg string, base lipgloss.Color) string {
	var b, seg strings.Builder
	color := base
	flush := func() {
		if seg.Len() > 0 {
			b.WriteString(r.NewStyle().Foreground(color).Render(seg.String()))
			seg.Reset()
		}
	}

	pos := 0
	for _, loc := range markupToken.FindAllStringSubmatchIndex(msg, -1) {
		seg.WriteString(msg[pos:loc[0]])
		pos = loc[1]
		if loc[3] > loc[2] {
			seg.WriteString(msg[loc[0]+1 : loc[1]])
			continue
		}
		flush()
		color = tokenColor(msg[loc[4]:loc[5]])
	}
	seg.WriteString(msg[pos:])
	flush()
	return b.String()
}

func tokenColor(name string) lipgloss.Color {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return lipgloss.Color(name)
}
