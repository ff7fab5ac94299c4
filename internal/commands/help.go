package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tabnotes/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tabnotes help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)

	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		name := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-18s %s\n", name, cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  tabnotes                                        List saved notes and tabs
  tabnotes list [common flags] [notes|tabs]       List one or both sections
  tabnotes note [common flags] <text...>          Save a note
  tabnotes tab [common flags] [--name <title>] [--no-fetch] <url>
  tabnotes rm [common flags] <ref>                Delete n<N> or t<N>
  tabnotes export [common flags] [--out <dir>] [--stdout] [--drive]
  tabnotes import [common flags] [--drive] <file>
  tabnotes backups [common flags]                 List Google Drive backups
  tabnotes login [common flags]
  tabnotes logout [common flags]
  tabnotes help
  tabnotes version

Import replaces all saved notes and tabs.
Use -- before note text that starts with a dash: tabnotes note -- -5 degrees

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
  --show           Print the changed list after each change
`
