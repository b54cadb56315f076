package explain

import "context"

// Source records which path produced an explanation.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

type Explanation struct {
	Text   string
	Source Source
}

// Explainer turns a code snippet into a natural-language explanation.
// A nil explanation with a non-nil error means no result was produced.
type Explainer interface {
	Explain(ctx context.Context, code string) (*Explanation, error)
}
