package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tabnotes/internal/exitcode"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd implements the export command.
type ExportCmd struct {
	outDir   string
	toStdout bool
	toDrive  bool
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return []string{"backup"} }
func (c *ExportCmd) Synopsis() string  { return "Write a JSON backup" }
func (c *ExportCmd) Usage() string {
	return "tabnotes export [--out <dir>] [--stdout] [--drive]"
}
func (c *ExportCmd) NeedsStore() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.outDir, "out", ".", "")
	fs.StringVar(&c.outDir, "o", ".", "")
	fs.BoolVar(&c.toStdout, "stdout", false, "")
	fs.BoolVar(&c.toDrive, "drive", false, "")
}

func (c *ExportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.toStdout && c.toDrive {
		fmt.Fprintln(errOut, "error: cannot use both --stdout and --drive")
		return exitcode.UserError
	}

	blob, err := env.Transfer.Export()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	switch {
	case c.toStdout:
		fmt.Fprintf(out, "%s\n", blob.Data)
		return exitcode.Success

	case c.toDrive:
		remote, err := env.Remote(ctx)
		if err != nil {
			return reportRemoteError(errOut, err)
		}
		if err := remote.Upload(ctx, blob.Name, blob.Data); err != nil {
			return reportRemoteError(errOut, err)
		}
		if !env.Config.Quiet {
			fmt.Fprintf(out, "uploaded %s\n", blob.Name)
		}
		return exitcode.Success
	}

	dir := c.outDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, blob.Name)
	if err := os.WriteFile(path, blob.Data, 0600); err != nil {
		fmt.Fprintf(errOut, "error: failed to write backup: %v\n", err)
		return exitcode.BackendError
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, path)
	}
	return exitcode.Success
}
