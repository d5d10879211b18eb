package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns a final answer into printable text.
type Renderer interface {
	Render(answer string) (string, error)
}

// New returns the renderer for mode: styled, markdown or plain.
func New(mode string) (Renderer, error) {
	switch mode {
	case "", "styled":
		return styled{styles: DefaultStyles()}, nil
	case "markdown":
		tr, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
		if err != nil {
			return nil, fmt.Errorf("markdown renderer: %w", err)
		}
		return markdown{tr: tr}, nil
	case "plain":
		return plain{}, nil
	}
	return nil, fmt.Errorf("unknown render mode %q", mode)
}

type styled struct{ styles Styles }

func (r styled) Render(answer string) (string, error) {
	return r.styles.Render(Format(answer)), nil
}

type markdown struct{ tr *glamour.TermRenderer }

func (r markdown) Render(answer string) (string, error) {
	if strings.TrimSpace(answer) == "" {
		return noResponse, nil
	}
	return r.tr.Render(answer)
}

type plain struct{}

func (plain) Render(answer string) (string, error) {
	if strings.TrimSpace(answer) == "" {
		return noResponse, nil
	}
	if !strings.HasSuffix(answer, "\n") {
		answer += "\n"
	}
	return answer, nil
}
