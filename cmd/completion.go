package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/repolens/cli/entity"
)

// Completion writes the completion script for the requested shell.
func (h *Handler) Completion(ctx context.Context, req *entity.CommandRequest) error {
	root := req.Cmd.Root()
	switch req.Args[0] {
	case "bash":
		return root.GenBashCompletion(os.Stdout)
	case "zsh":
		return root.GenZshCompletion(os.Stdout)
	case "fish":
		return root.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(os.Stdout)
	}
	return fmt.Errorf("unsupported shell %q", req.Args[0])
}
