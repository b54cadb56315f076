package explain

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/robottwo/codexplain/internal/styles"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// functionMarker is the substring that marks a function definition.
const functionMarker = "def "

const unknownKeyword = "unknown"

// Vocabulary is the fixed, ordered keyword set scanned by FindKeywords.
var Vocabulary = []string{"def", "return", "if", "else", "for", "while", "import"}

// Classify reports whether the snippet looks like a function definition.
func Classify(code string) string {
	if strings.Contains(code, functionMarker) {
		return "function"
	}
	return "code snippet"
}

// FindKeywords returns the vocabulary words that occur anywhere in code,
// in vocabulary order. Matching is by substring, so "format" counts as "for".
func FindKeywords(code string) []string {
	found := lo.Filter(Vocabulary, func(word string, _ int) bool {
		return strings.Contains(code, word)
	})
	if len(found) == 0 {
		return []string{unknownKeyword}
	}
	return found
}

// BasicAnalysis renders the heuristic explanation for code.
func BasicAnalysis(code string) string {
	return fmt.Sprintf(`Basic Code Analysis:
- This appears to be a %s
- Key operations: %s
- Try adding comments to understand it better!`,
		Classify(code),
		strings.Join(FindKeywords(code), ", "),
	)
}

// FallbackExplainer is the local, non-AI explainer. It never fails.
type FallbackExplainer struct {
	out    io.Writer
	styles *styles.Styler
	logger *zap.Logger
}

func NewFallbackExplainer(out io.Writer, logger *zap.Logger) *FallbackExplainer {
	return &FallbackExplainer{
		out:    out,
		styles: styles.New(out),
		logger: logger,
	}
}

func (e *FallbackExplainer) Explain(_ context.Context, code string) (*Explanation, error) {
	fmt.Fprintln(e.out, e.styles.INFO("ℹ️ Using basic explanation (no AI)..."))

	text := BasicAnalysis(code)
	e.logger.Debug("fallback explanation", zap.String("classification", Classify(code)), zap.Strings("keywords", FindKeywords(code)))

	return &Explanation{Text: text, Source: SourceFallback}, nil
}
