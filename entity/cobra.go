package entity

import "github.com/spf13/cobra"

// CommandRequest is what every command handler receives: the cobra command
// (for flags) and its positional arguments.
type CommandRequest struct {
	Cmd  *cobra.Command
	Args []string
}

type CobraFunction func(cmd *cobra.Command, args []string) error
