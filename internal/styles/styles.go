package styles

import (
	"io"

	"github.com/muesli/termenv"
)

// Styler colours the progress and diagnostic lines printed while an
// explanation is being produced. Writers that are not terminals get
// plain text.
type Styler struct {
	out *termenv.Output
}

func New(w io.Writer) *Styler {
	return &Styler{out: termenv.NewOutput(w)}
}

func (s *Styler) ERROR(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("9")).
		String()
}

func (s *Styler) WARNING(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("11")).
		Bold().
		String()
}

// INFO styles neutral status lines (e.g. "Generating explanation...")
func (s *Styler) INFO(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("12")).
		String()
}

// HINT styles secondary text with a dimmed appearance
func (s *Styler) HINT(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("244")).
		String()
}
