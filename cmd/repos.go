package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/ui"
)

func (h *Handler) Repos(ctx context.Context, req *entity.CommandRequest) error {
	ctrl, err := h.connected(ctx)
	if err != nil {
		return err
	}
	asJSON, err := req.Cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	ui.StartSpinner(&ui.SpinnerCfg{Message: "Listing repositories"})
	repos, err := ctrl.Repositories(ctx)
	ui.StopSpinner("")
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(repos)
	}
	if len(repos) == 0 {
		fmt.Println("No repositories")
		return nil
	}
	for _, r := range repos {
		fmt.Println(ui.RepositoryLine(r))
	}
	return nil
}

// Open shows the repository on the provider's website.
func (h *Handler) Open(ctx context.Context, req *entity.CommandRequest) error {
	id, err := repository(req)
	if err != nil {
		return err
	}
	url := h.cfg.Provider().WebURL + "/" + id.String()
	if h.ctrl != nil {
		for _, r := range h.ctrl.View().Repositories {
			if r.ID() == id && r.WebURL != "" {
				url = r.WebURL
			}
		}
	}
	fmt.Println(ui.GrayText(url))
	return browser.OpenURL(url)
}
