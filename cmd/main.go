package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/configs"
	"github.com/repolens/cli/constants"
	"github.com/repolens/cli/controller"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/lib/git"
	"github.com/repolens/cli/session"
	"github.com/repolens/cli/uuid"
)

type Handler struct {
	cfg  *configs.Configs
	svc  *controller.Services
	ctrl *controller.Controller
}

func New() *Handler {
	return &Handler{
		cfg: configs.New(),
	}
}

func (h *Handler) Configs() *configs.Configs {
	return h.cfg
}

// controller wires the provider on first use and restores a stored
// credential. opener only matters for the first call.
func (h *Handler) controller(ctx context.Context, opener auth.Opener) (*controller.Controller, error) {
	if h.ctrl != nil {
		return h.ctrl, nil
	}
	svc, err := controller.NewServices(h.cfg, opener)
	if err != nil {
		return nil, err
	}
	ctrl := svc.NewController(session.New(uuid.New(), constants.LocalAccount))
	if _, err := ctrl.Restore(ctx); err != nil {
		return nil, err
	}
	h.svc = svc
	h.ctrl = ctrl
	return ctrl, nil
}

// connected is controller for commands that need a stored credential.
func (h *Handler) connected(ctx context.Context) (*controller.Controller, error) {
	ctrl, err := h.controller(ctx, auth.BrowserOpener{})
	if err != nil {
		return nil, err
	}
	if ctrl.State() == controller.Disconnected {
		return nil, errors.Wrap(rlerrors.NotAuthorized, "run repolens login first")
	}
	return ctrl, nil
}

// repository reads --repo, falling back to the origin remote of the
// current directory.
func repository(req *entity.CommandRequest) (entity.RepositoryID, error) {
	name, err := req.Cmd.Flags().GetString("repo")
	if err != nil {
		return "", err
	}
	if name != "" {
		return entity.ParseRepositoryID(name)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	id, err := git.OriginRepository(wd)
	if err != nil {
		return "", errors.Wrap(rlerrors.NoSelection, "pass --repo owner/name or run inside a clone")
	}
	return id, nil
}
