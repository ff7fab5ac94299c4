package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tabnotes/internal/exitcode"
	"tabnotes/internal/output"
	"tabnotes/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tabnotes` (no args) and `tabnotes list [notes|tabs]`.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List saved notes and tabs" }
func (c *ListCmd) Usage() string     { return "tabnotes list [notes|tabs]" }
func (c *ListCmd) NeedsStore() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	var arg string
	if len(args) == 1 {
		arg = strings.TrimSpace(args[0])
	}
	kind, ok := parseKind(arg)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown list: %s (want notes or tabs)\n", arg)
		return exitcode.UserError
	}

	notes, tabs := env.Store.Notes(), env.Store.Tabs()

	switch kind {
	case service.KindNote:
		output.FormatNotes(out, notes)
	case service.KindTab:
		output.FormatTabs(out, tabs)
	default:
		if len(notes) == 0 && len(tabs) == 0 {
			if !env.Config.Quiet {
				fmt.Fprintln(out, "nothing saved")
			}
			return exitcode.Success
		}
		output.FormatNotes(out, notes)
		output.FormatTabs(out, tabs)
	}

	return exitcode.Success
}
