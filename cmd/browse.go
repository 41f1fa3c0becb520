package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/ui"
)

// Browse walks repositories interactively until the user quits.
func (h *Handler) Browse(ctx context.Context, req *entity.CommandRequest) error {
	if !ui.Interactive() {
		return errors.Wrap(rlerrors.InvalidState, "browse needs a terminal; use ls and cat instead")
	}
	ctrl, err := h.connected(ctx)
	if err != nil {
		return err
	}

	var id entity.RepositoryID
	if name, _ := req.Cmd.Flags().GetString("repo"); name != "" {
		if id, err = entity.ParseRepositoryID(name); err != nil {
			return err
		}
	}

	for {
		if id == "" {
			repos := ctrl.View().Repositories
			if len(repos) == 0 {
				if repos, err = ctrl.Repositories(ctx); err != nil {
					return err
				}
			}
			if len(repos) == 0 {
				fmt.Println("No repositories")
				return nil
			}
			repo, err := ui.PromptRepositories(repos)
			if err != nil {
				return quitOnInterrupt(err)
			}
			id = repo.ID()
		}
		if _, err := ctrl.SelectRepository(ctx, id); err != nil {
			return err
		}

		back, err := browseTree(ctx, ctrl, id)
		if err != nil || !back {
			return err
		}
		if err := ctrl.Deselect(); err != nil {
			return err
		}
		id = ""
	}
}

type treeBrowser interface {
	Expand(ctx context.Context, path string) ([]*entity.TreeNode, error)
	Refresh(ctx context.Context) ([]*entity.TreeNode, error)
	OpenFile(ctx context.Context, path string) (*entity.FileSnapshot, error)
	CloseFile()
}

// browseTree runs the directory prompt for one repository. It reports true
// when the user asked to go back to the repository list.
func browseTree(ctx context.Context, b treeBrowser, id entity.RepositoryID) (bool, error) {
	dir := ""
	for {
		children, err := b.Expand(ctx, dir)
		if err != nil {
			if dir != "" && (errors.Is(err, rlerrors.Transient) || errors.Is(err, rlerrors.NotFound)) {
				fmt.Println(ui.RedText(err.Error()))
				dir = parent(dir)
				continue
			}
			return false, err
		}

		item, err := ui.PromptBrowse(id, dir, children)
		if err != nil {
			return false, quitOnInterrupt(err)
		}
		switch item.Action {
		case ui.ActionUp:
			dir = parent(dir)
		case ui.ActionRefresh:
			if _, err := b.Refresh(ctx); err != nil {
				fmt.Println(ui.RedText(err.Error()))
			}
			dir = ""
		case ui.ActionRepositories:
			return true, nil
		case ui.ActionQuit:
			return false, nil
		case ui.ActionOpen:
			if item.Node.IsDir() {
				dir = item.Node.Path
				continue
			}
			file, err := b.OpenFile(ctx, item.Node.Path)
			if err != nil {
				if errors.Is(err, rlerrors.NotAuthorized) {
					return false, err
				}
				fmt.Println(ui.RedText(err.Error()))
				continue
			}
			if err := writeFile(file, false); err != nil {
				fmt.Println(ui.YellowText(err.Error()))
			}
			b.CloseFile()
		}
	}
}

func parent(dir string) string {
	for i := len(dir) - 1; i >= 0; i-- {
		if dir[i] == '/' {
			return dir[:i]
		}
	}
	return ""
}

func quitOnInterrupt(err error) error {
	if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
		return nil
	}
	return err
}
