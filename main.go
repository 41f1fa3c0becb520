package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/repolens/cli/cmd"
	"github.com/repolens/cli/constants"
	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/logging"
	"github.com/spf13/cobra"
)

// errReported means the handler already told the user what went wrong.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:           "repolens",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       constants.Version,
	Short:         "🔭 Browse remote repositories without cloning them",
	Long:          "Connect repolens to your Gitea or GitHub account, then list repositories,\nwalk their trees and read files straight from the provider.",
}

/* contextualize converts a HandlerFunction to a cobra function
 */
func contextualize(fn entity.HandlerFunction, panicFn entity.PanicFunction, errFn func(context.Context, error) error) entity.CobraFunction {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		defer func() {
			if r := recover(); r != nil {
				panicFn(ctx, fmt.Sprint(r), string(debug.Stack()), cmd.Name(), args)
				err = errReported
			}
		}()

		req := &entity.CommandRequest{
			Cmd:  cmd,
			Args: args,
		}
		if err := fn(ctx, req); err != nil {
			errFn(ctx, err)
			return errReported
		}
		return nil
	}
}

func init() {
	// Initializes all commands
	handler := cmd.New()
	if err := logging.Init(logging.Config(handler.Configs().Log())); err != nil {
		fmt.Fprintln(os.Stderr, "logging disabled:", err)
	}
	run := func(fn entity.HandlerFunction) entity.CobraFunction {
		return contextualize(fn, handler.Panic, handler.Errors)
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Connect your provider account",
		RunE:  run(handler.Login),
	}
	loginCmd.Flags().Bool("browserless", false, "Print the consent link instead of opening a browser")

	reposCmd := &cobra.Command{
		Use:   "repos",
		Short: "List your repositories",
		RunE:  run(handler.Repos),
	}
	reposCmd.Flags().Bool("json", false, "Print repositories as JSON")

	lsCmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run(handler.List),
	}
	lsCmd.Flags().Bool("tree", false, "Print every loaded directory as a tree")

	catCmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file of a repository",
		Args:  cobra.ExactArgs(1),
		RunE:  run(handler.Cat),
	}
	catCmd.Flags().Bool("raw", false, "Write binary files to a pipe")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Walk repositories interactively",
		RunE:  run(handler.Browse),
	}

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a repository in the browser",
		RunE:  run(handler.Open),
	}

	for _, c := range []*cobra.Command{lsCmd, catCmd, browseCmd, openCmd} {
		c.Flags().StringP("repo", "r", "", "Repository as owner/name (defaults to the origin remote)")
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web console",
		RunE:  run(handler.Serve),
	}
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr)")

	rootCmd.AddCommand(loginCmd, reposCmd, lsCmd, catCmd, browseCmd, openCmd, serveCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Disconnect and revoke the stored token",
		RunE:  run(handler.Logout),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the provider and connection",
		RunE:  run(handler.Status),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the connected account",
		RunE:  run(handler.Whoami),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "config [key] [value]",
		Short: "Show or change settings",
		Args:  cobra.RangeArgs(0, 2),
		RunE:  run(handler.Config),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Get version of repolens",
		RunE:  run(handler.Version),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate completion script",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE:                  run(handler.Completion),
	})
}

func main() {
	err := rootCmd.Execute()
	_ = logging.Sync()
	if err != nil {
		if err == errReported {
			os.Exit(1)
		}
		if strings.Contains(err.Error(), "unknown command") {
			suggStr := "\nS"

			suggestions := rootCmd.SuggestionsFor(os.Args[1])
			if len(suggestions) > 0 {
				suggStr = fmt.Sprintf(" Did you mean \"%s\"?\nIf not, s", suggestions[0])
			}

			fmt.Printf("Unknown command \"%s\" for \"%s\".%s"+
				"ee \"repolens --help\" for available commands.\n",
				os.Args[1], rootCmd.CommandPath(), suggStr)
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
