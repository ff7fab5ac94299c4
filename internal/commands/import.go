package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tabnotes/internal/exitcode"
	"tabnotes/internal/service"
)

func init() {
	Register(&ImportCmd{})
}

// ImportCmd implements the import command. The backup replaces everything
// saved so far.
type ImportCmd struct {
	fromDrive bool
}

func (c *ImportCmd) Name() string      { return "import" }
func (c *ImportCmd) Aliases() []string { return []string{"restore"} }
func (c *ImportCmd) Synopsis() string  { return "Replace all notes and tabs from a JSON backup" }
func (c *ImportCmd) Usage() string     { return "tabnotes import [--drive] <file>" }
func (c *ImportCmd) NeedsStore() bool  { return true }

func (c *ImportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.fromDrive, "drive", false, "")
}

func (c *ImportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}

	if c.fromDrive {
		if code := c.importRemote(ctx, env, name, errOut); code != exitcode.Success {
			return code
		}
	} else {
		if name == "" {
			fmt.Fprintln(errOut, "error: file required")
			return exitcode.UserError
		}
		if err := env.Transfer.ImportFile(ctx, name); err != nil {
			return reportImportError(errOut, err)
		}
	}

	if !env.Config.Quiet {
		fmt.Fprintf(out, "imported %d notes and %d tabs\n", len(env.Store.Notes()), len(env.Store.Tabs()))
	}
	return exitcode.Success
}

// importRemote downloads name, or the newest backup when name is empty.
func (c *ImportCmd) importRemote(ctx context.Context, env *Env, name string, errOut io.Writer) int {
	remote, err := env.Remote(ctx)
	if err != nil {
		return reportRemoteError(errOut, err)
	}

	if name == "" {
		files, err := remote.List(ctx)
		if err != nil {
			return reportRemoteError(errOut, err)
		}
		if len(files) == 0 {
			fmt.Fprintln(errOut, "error: no backups found")
			return exitcode.UserError
		}
		name = files[0].Name
	}

	data, err := remote.Download(ctx, name)
	if err != nil {
		return reportRemoteError(errOut, err)
	}
	if err := env.Transfer.ImportBlob(ctx, name, data); err != nil {
		return reportImportError(errOut, err)
	}
	return exitcode.Success
}

// reportImportError maps an import failure to a message and exit code.
// The saved lists are unchanged in every case.
func reportImportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrExtension),
		errors.Is(err, service.ErrFormat),
		errors.Is(err, service.ErrSchema),
		errors.Is(err, service.ErrImportBusy):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrIO):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	default:
		return reportStoreError(errOut, err)
	}
}
