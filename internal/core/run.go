package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/robottwo/codexplain/internal/config"
	"github.com/robottwo/codexplain/internal/explain"
	"github.com/robottwo/codexplain/internal/input"
	"github.com/robottwo/codexplain/internal/present"
	"github.com/robottwo/codexplain/internal/styles"
	"go.uber.org/zap"
)

// Run resolves the code named by cfg, explains it and prints the result to
// out. An unreadable input file is reported on out and returned; nothing
// else is printed in that case.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.Logger, userAgent string) error {
	style := styles.New(out)

	code, err := input.Resolve(cfg.Source())
	if err != nil {
		logger.Error("failed to resolve input", zap.String("file", cfg.File), zap.Error(err))
		fmt.Fprintln(out, style.ERROR(fmt.Sprintf("Error reading file: %v", err)))
		return err
	}

	fmt.Fprintln(out, style.INFO("\n🧠 Generating explanation...\n"))

	router := &explain.Router{
		Fallback: explain.NewFallbackExplainer(out, logger),
		Logger:   logger,
	}
	if cfg.HasCredential() {
		remote, err := explain.NewRemoteExplainer(cfg.Remote(userAgent), out, logger)
		if err != nil {
			return err
		}
		router.Remote = remote
	}

	explanation, err := router.Explain(ctx, code)
	if err != nil {
		return err
	}

	logger.Info("explanation ready", zap.String("source", string(explanation.Source)), zap.Int("length", len(explanation.Text)))
	return present.New(out).Present(explanation.Text)
}

// IsInputError reports whether err came from reading the input file.
func IsInputError(err error) bool {
	return errors.Is(err, input.ErrUnreadable)
}
