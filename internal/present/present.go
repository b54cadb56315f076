// Package present prints an explanation between visual delimiters.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	Header    = "💡 Code Explanation:"
	RuleWidth = 50
)

var Rule = strings.Repeat("-", RuleWidth)

type Presenter struct {
	out         io.Writer
	headerStyle lipgloss.Style
	ruleStyle   lipgloss.Style
}

func New(out io.Writer) *Presenter {
	renderer := lipgloss.NewRenderer(out)
	return &Presenter{
		out:         out,
		headerStyle: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		ruleStyle:   renderer.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Present writes the header, a rule, text unchanged, and a closing rule.
func (p *Presenter) Present(text string) error {
	rule := p.ruleStyle.Render(Rule)
	_, err := fmt.Fprintf(p.out, "%s\n%s\n%s\n%s\n",
		p.headerStyle.Render(Header),
		rule,
		text,
		rule,
	)
	return err
}
