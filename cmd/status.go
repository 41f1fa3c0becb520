package cmd

import (
	"context"
	"fmt"

	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/constants"
	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/ui"
)

func (h *Handler) Status(ctx context.Context, req *entity.CommandRequest) error {
	provider := h.cfg.Provider()
	items := map[string]string{
		"Provider": provider.Kind,
		"API":      provider.BaseURL,
		"Account":  constants.LocalAccount,
	}

	ctrl, err := h.controller(ctx, auth.BrowserOpener{})
	if err != nil {
		items["Connected"] = "unknown (" + err.Error() + ")"
		fmt.Print(ui.KeyValues(items))
		return nil
	}
	a := ctrl.Session().Tokens.Get()
	if a.Authorized {
		items["Connected"] = "as " + identityText(a.Identity)
		items["Repositories"] = fmt.Sprint(len(ctrl.View().Repositories))
	} else {
		items["Connected"] = "no, run repolens login"
	}
	fmt.Print(ui.KeyValues(items))
	return nil
}

func (h *Handler) Whoami(ctx context.Context, req *entity.CommandRequest) error {
	ctrl, err := h.connected(ctx)
	if err != nil {
		return err
	}
	a := ctrl.Session().Tokens.Get()
	fmt.Printf("👋 Hey, %s\n", ui.MagentaText(identityText(a.Identity)))
	return nil
}
