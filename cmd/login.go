package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/ui"
)

func (h *Handler) Login(ctx context.Context, req *entity.CommandRequest) error {
	if err := h.cfg.Validate(); err != nil {
		return err
	}
	isBrowserless, err := req.Cmd.Flags().GetBool("browserless")
	if err != nil {
		return err
	}

	var opener auth.Opener = auth.BrowserOpener{}
	if isBrowserless {
		opener = auth.PageOpener{}
	}
	ctrl, err := h.controller(ctx, opener)
	if err != nil {
		return err
	}
	if a := ctrl.Session().Tokens.Get(); a.Authorized {
		fmt.Printf("Already connected as %s\n", ui.Bold(a.Identity.Handle))
		return nil
	}

	loopback, err := auth.Listen(h.svc.Coordinator, h.cfg.OAuth().RedirectURL)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = loopback.Close(shutdownCtx)
	}()

	handle, err := ctrl.BeginConnect(ctx)
	if err != nil {
		return err
	}
	if isBrowserless {
		fmt.Printf("Open this link to authorize repolens:\n\n%s\n\n", ui.BlueText(handle.AuthURL()))
	} else {
		fmt.Printf("Your browser should open the %s consent page. If it does not, visit:\n%s\n\n", h.cfg.Provider().Kind, ui.GrayText(handle.AuthURL()))
	}

	ui.StartSpinner(&ui.SpinnerCfg{
		Message: "Waiting for authorization",
	})
	identity, err := ctrl.FinishConnect(ctx, handle)
	ui.StopSpinner("")
	if err != nil {
		if ctx.Err() != nil {
			ctrl.CancelConnect(handle.State())
		}
		return err
	}

	fmt.Printf("\n🎉 Connected as %s\n", ui.Bold(identityText(identity)))
	return nil
}

func (h *Handler) Logout(ctx context.Context, req *entity.CommandRequest) error {
	ctrl, err := h.controller(ctx, auth.BrowserOpener{})
	if err != nil {
		return err
	}
	if !ctrl.Session().Tokens.Get().Authorized {
		fmt.Println("Not connected")
		return nil
	}
	if err := ctrl.Disconnect(ctx); err != nil {
		fmt.Println(ui.YellowText("The provider did not confirm revocation; the local credential was removed anyway."))
		return err
	}
	fmt.Println("👋 Disconnected")
	return nil
}

func identityText(identity *entity.Identity) string {
	if identity == nil {
		return ""
	}
	if identity.DisplayName != "" {
		return fmt.Sprintf("%s (%s)", identity.DisplayName, identity.Handle)
	}
	return identity.Handle
}
