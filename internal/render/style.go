package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles maps span classes to terminal styles. Classes without an entry
// are printed unstyled.
type Styles map[string]lipgloss.Style

// DefaultStyles is the palette used by the shell.
func DefaultStyles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		ClassCode:       fg("6"),
		ClassHeader:     fg("2").Bold(true),
		"thinking":      fg("4").Italic(true),
		ClassBold:       lipgloss.NewStyle().Bold(true),
		ClassInlineCode: fg("3"),
		ClassError:      fg("1").Bold(true),
		"warning":       fg("3"),
		"success":       fg("2"),
		ClassMath:       fg("5"),
		"emoji":         fg("13"),
		"username":      fg("2").Bold(true),
		"model":         fg("3").Bold(true),
		"path":          fg("6"),
		"instruction":   fg("10"),
	}
}

// Styled renders spans with the default palette.
func Styled(spans []Span) string {
	return DefaultStyles().Render(spans)
}

func (s Styles) Render(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		st, ok := s[sp.Class]
		if !ok {
			b.WriteString(sp.Text)
			continue
		}
		// Style line by line so lipgloss does not pad lines to a common width.
		for i, line := range strings.Split(sp.Text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(st.Render(line))
			}
		}
	}
	return b.String()
}

// Line styles a single status line such as "system> Error: ...".
func (s Styles) Line(class, text string) string {
	return s.Render([]Span{{Class: class, Text: text}})
}
