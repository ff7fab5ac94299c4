package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	"tabnotes/internal/exitcode"
	"tabnotes/internal/service"
)

func init() {
	Register(&TabCmd{})
}

// TabCmd implements the tab command. The URL stands in for the active tab;
// its page title is fetched unless disabled.
type TabCmd struct {
	name    string
	noFetch bool
}

func (c *TabCmd) Name() string      { return "tab" }
func (c *TabCmd) Aliases() []string { return []string{"bookmark"} }
func (c *TabCmd) Synopsis() string  { return "Save a tab bookmark" }
func (c *TabCmd) Usage() string     { return "tabnotes tab [--name <title>] [--no-fetch] <url>" }
func (c *TabCmd) NeedsStore() bool  { return true }

func (c *TabCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.name, "n", "", "")
	fs.BoolVar(&c.noFetch, "no-fetch", false, "")
}

func (c *TabCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: url required")
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintln(errOut, "error: too many arguments (use --name for the title)")
		return exitcode.UserError
	}

	rawURL := strings.TrimSpace(args[0])
	if _, err := url.Parse(rawURL); err != nil {
		fmt.Fprintf(errOut, "error: invalid url: %s\n", rawURL)
		return exitcode.UserError
	}

	// Only a name override skips the lookup; an empty name keeps the page title.
	fetch := !c.noFetch && strings.TrimSpace(c.name) == ""
	info, err := env.TabSource(rawURL, fetch).ActiveTab(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	if err := env.Store.AddTab(ctx, info, c.name); err != nil {
		if errors.Is(err, service.ErrInvalidTab) {
			fmt.Fprintln(errOut, "error: url required")
			return exitcode.UserError
		}
		return reportStoreError(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
