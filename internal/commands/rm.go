package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tabnotes/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a note or tab" }
func (c *RmCmd) Usage() string     { return "tabnotes rm <ref>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseItemRef(args)
	if err != nil {
		if errors.Is(err, ErrItemRefRequired) {
			fmt.Fprintln(errOut, "error: item reference required (e.g. n1 or t2)")
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.UserError
	}

	removed, err := env.Store.RemoveAt(ctx, ref.Kind, ref.Index())
	if err != nil {
		return reportStoreError(errOut, err)
	}
	if !removed {
		fmt.Fprintf(errOut, "error: %s number out of range: %d\n", ref.Kind, ref.Num)
		return exitcode.UserError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
