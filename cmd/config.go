package cmd

import (
	"context"
	"fmt"

	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/ui"
)

// Config prints every setting, prints one with `config KEY`, or persists one
// with `config KEY VALUE`.
func (h *Handler) Config(ctx context.Context, req *entity.CommandRequest) error {
	switch len(req.Args) {
	case 1:
		fmt.Println(h.cfg.Settings()[req.Args[0]])
		return nil
	case 2:
		if err := h.cfg.Set(req.Args[0], req.Args[1]); err != nil {
			return err
		}
		fmt.Printf("%s set to %s\n", ui.Bold(req.Args[0]), req.Args[1])
		return nil
	}
	fmt.Printf("Settings from %s\n\n", ui.GrayText(h.cfg.Dir))
	fmt.Print(ui.KeyValues(h.cfg.Settings()))
	return nil
}
