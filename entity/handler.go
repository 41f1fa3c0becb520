package entity

import "context"

// HandlerFunction runs one command.
type HandlerFunction func(context.Context, *CommandRequest) error

// PanicFunction reports a recovered panic: message, stack, command name, args.
type PanicFunction func(context.Context, string, string, string, []string) error
