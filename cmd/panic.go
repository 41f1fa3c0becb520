package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/repolens/cli/constants"
	"github.com/repolens/cli/logging"
	"github.com/repolens/cli/ui"
	"go.uber.org/zap"
)

func (h *Handler) Panic(ctx context.Context, panicErr string, stacktrace string, cmd string, args []string) error {
	logging.WithContext(ctx).Error("command panicked",
		zap.String("command", cmd),
		zap.Strings("args", args),
		zap.String("version", constants.Version),
		zap.String("panic", panicErr),
		zap.String("stack", stacktrace),
	)
	fmt.Fprintln(os.Stderr, ui.RedText(fmt.Sprintf("repolens %s crashed: %s", cmd, panicErr)))
	fmt.Fprintln(os.Stderr, "Run again with REPOLENS_LOG_LEVEL=debug for details.")
	return nil
}
