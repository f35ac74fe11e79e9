package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/common-nighthawk/go-figure"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Usage       string
	Description string
	Run         func(ctx context.Context, app *App, args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand(appName string) *Command {
	root := &Command{
		Name:        appName,
		Description: "Console for the restaurant and POS platform",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("fnb-console", flag.ContinueOnError),
	}

	// Add subcommands
	for _, cmd := range []*Command{
		newLoginCommand(),
		newLogoutCommand(),
		newWhoAmICommand(),
		newRefreshCommand(),
		newGetCommand(),
		newListCommand(),
		newResourcesCommand(),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute runs the subcommand named by args[0].
func (c *Command) Execute(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return c.usage(app.out)
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(ctx, app, args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the banner and command usage
func (c *Command) usage(w io.Writer) error {
	fmt.Fprintln(w, figure.NewFigure(c.Name, "cybermedium", true).String())
	fmt.Fprintf(w, "Usage: fnb-console <command> [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range slices.Sorted(maps.Keys(c.Subcommands)) {
		cmd := c.Subcommands[name]
		fmt.Fprintf(w, "  %-28s %s\n", cmd.Usage, cmd.Description)
	}
	return nil
}
