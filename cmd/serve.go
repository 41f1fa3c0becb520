package cmd

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/configs"
	"github.com/repolens/cli/controller"
	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/server"
	"github.com/repolens/cli/ui"
)

// Serve runs the web console until ctx is cancelled.
func (h *Handler) Serve(ctx context.Context, req *entity.CommandRequest) error {
	if err := h.cfg.Validate(); err != nil {
		return err
	}
	addr, err := req.Cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = h.cfg.ServerAddr()
	}

	if !configs.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}
	svc, err := controller.NewServices(h.cfg, auth.PageOpener{})
	if err != nil {
		return err
	}
	srv := server.New(svc)
	fmt.Printf("Serving the repolens console on %s\n", ui.Bold(addr))
	return srv.ListenAndServe(ctx, addr)
}
