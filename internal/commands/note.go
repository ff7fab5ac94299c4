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
	Register(&NoteCmd{})
}

// NoteCmd implements the note command.
type NoteCmd struct{}

func (c *NoteCmd) Name() string      { return "note" }
func (c *NoteCmd) Aliases() []string { return []string{"add"} }
func (c *NoteCmd) Synopsis() string  { return "Save a note" }
func (c *NoteCmd) Usage() string     { return "tabnotes note <text...>" }
func (c *NoteCmd) NeedsStore() bool  { return true }

func (c *NoteCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *NoteCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	text := strings.Join(args, " ")

	added, err := env.Store.AddNote(ctx, text)
	if err != nil {
		return reportStoreError(errOut, err)
	}
	if !added {
		fmt.Fprintln(errOut, "error: note text required")
		return exitcode.UserError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
