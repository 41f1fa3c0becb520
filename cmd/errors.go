package cmd

import (
	"context"
	"fmt"
	"os"

	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/logging"
	"github.com/repolens/cli/ui"
	"go.uber.org/zap"
)

var hints = map[string]string{
	"not_authorized": "Run repolens login to connect your account.",
	"config_missing": "See repolens config for the current settings.",
	"transient":      "The provider could not be reached. Try again in a moment.",
	"too_large":      "Open the file on the provider's website instead.",
}

// Errors reports a command failure to the user.
func (h *Handler) Errors(ctx context.Context, err error) error {
	kind := rlerrors.Kind(err)
	logging.WithContext(ctx).Debug("command failed", zap.String("kind", kind), zap.Error(err))

	fmt.Fprintln(os.Stderr, ui.RedText(err.Error()))
	if hint, ok := hints[kind]; ok {
		fmt.Fprintln(os.Stderr, hint)
	}
	return nil
}
