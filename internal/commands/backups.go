package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tabnotes/internal/exitcode"
	"tabnotes/internal/output"
)

func init() {
	Register(&BackupsCmd{})
}

// BackupsCmd implements the backups command.
type BackupsCmd struct{}

func (c *BackupsCmd) Name() string      { return "backups" }
func (c *BackupsCmd) Aliases() []string { return nil }
func (c *BackupsCmd) Synopsis() string  { return "List backups stored in Google Drive" }
func (c *BackupsCmd) Usage() string     { return "tabnotes backups" }
func (c *BackupsCmd) NeedsStore() bool  { return false }

func (c *BackupsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BackupsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	remote, err := env.Remote(ctx)
	if err != nil {
		return reportRemoteError(errOut, err)
	}

	files, err := remote.List(ctx)
	if err != nil {
		return reportRemoteError(errOut, err)
	}

	if len(files) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "no backups found")
		}
		return exitcode.Success
	}

	for _, f := range files {
		output.FormatRemoteFile(out, f)
	}
	return exitcode.Success
}
