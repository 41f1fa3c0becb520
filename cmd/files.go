package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/repolens/cli/controller"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/ui"
)

// selectRepository connects and selects the repository named by the request.
func (h *Handler) selectRepository(ctx context.Context, req *entity.CommandRequest) (*controller.Controller, error) {
	ctrl, err := h.connected(ctx)
	if err != nil {
		return nil, err
	}
	id, err := repository(req)
	if err != nil {
		return nil, err
	}
	if _, err := ctrl.SelectRepository(ctx, id); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (h *Handler) List(ctx context.Context, req *entity.CommandRequest) error {
	ctrl, err := h.selectRepository(ctx, req)
	if err != nil {
		return err
	}
	path := ""
	if len(req.Args) > 0 {
		path = req.Args[0]
	}
	asTree, err := req.Cmd.Flags().GetBool("tree")
	if err != nil {
		return err
	}

	children, err := ctrl.ExpandPath(ctx, path)
	if err != nil {
		return err
	}

	if asTree {
		fmt.Print(ui.Tree(ctrl.View().Tree))
		return nil
	}
	labels := make([]string, 0, len(children))
	for _, n := range children {
		label := ui.EntryLabel(n)
		if n.IsDir() {
			label = ui.BlueText(label)
		}
		labels = append(labels, label)
	}
	fmt.Print(strings.Join(labels, "\n"))
	if len(labels) > 0 {
		fmt.Println()
	}
	return nil
}

func (h *Handler) Cat(ctx context.Context, req *entity.CommandRequest) error {
	ctrl, err := h.selectRepository(ctx, req)
	if err != nil {
		return err
	}
	raw, err := req.Cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}

	file, err := ctrl.OpenFile(ctx, req.Args[0])
	if err != nil {
		return err
	}
	return writeFile(file, raw)
}

// writeFile prints a text file. Binary files are only written with raw and
// never to a terminal.
func writeFile(file *entity.FileSnapshot, raw bool) error {
	if file.Encoding != entity.EncodingBase64 {
		fmt.Print(file.Content)
		if !strings.HasSuffix(file.Content, "\n") {
			fmt.Println()
		}
		return nil
	}
	if !raw || ui.IsTerminal(os.Stdout) {
		return errors.Wrapf(rlerrors.InvalidState, "%s is binary (%d bytes); pipe it with --raw", file.Path, file.Size)
	}
	b, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}
