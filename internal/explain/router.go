package explain

import (
	"context"

	"go.uber.org/zap"
)

// Router prefers the remote explainer and falls back to the local heuristic
// when no remote explainer is configured or it produces no result.
type Router struct {
	Remote   Explainer
	Fallback Explainer
	Logger   *zap.Logger
}

func (r *Router) Explain(ctx context.Context, code string) (*Explanation, error) {
	if r.Remote != nil {
		explanation, err := r.Remote.Explain(ctx, code)
		if err == nil && explanation != nil && explanation.Text != "" {
			return explanation, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.Logger.Info("remote explanation unavailable, falling back", zap.Error(err))
	} else {
		r.Logger.Debug("no remote explainer configured")
	}

	return r.Fallback.Explain(ctx, code)
}
