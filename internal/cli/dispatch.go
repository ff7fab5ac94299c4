package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tabnotes/internal/commands"
	"tabnotes/internal/config"
	"tabnotes/internal/exitcode"
	"tabnotes/internal/logging"
	"tabnotes/internal/output"
	"tabnotes/internal/service"
)

// StorageFactory opens the durable storage selected by config.
// Used to inject the backend during dispatch.
type StorageFactory func(cfg *config.Config) (service.Storage, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRemote sets the factory for the remote backup client.
func WithRemote(f commands.RemoteFactory) Option {
	return func(d *Dispatcher) { d.remote = f }
}

// WithTabSource sets the factory used to describe a bookmarked URL.
func WithTabSource(f commands.TabSourceFactory) Option {
	return func(d *Dispatcher) { d.tabSource = f }
}

// WithClock sets the clock used for item dates and export file names.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry  *commands.Registry
	storage   StorageFactory
	remote    commands.RemoteFactory
	tabSource commands.TabSourceFactory
	now       func() time.Time
}

// NewDispatcher creates a new dispatcher with the given registry and storage factory.
func NewDispatcher(registry *commands.Registry, storage StorageFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		storage:  storage,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var (
		configDir string
		quiet     bool
		debug     bool
		show      bool
	)
	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")
	fs.BoolVar(&show, "show", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, flagErrorMessage(err))
		return exitcode.UserError
	}

	// A leading dash left after parsing is a misplaced flag, unless "--"
	// ended flag parsing and the text is meant literally.
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && !endedByTerminator(args, positionalArgs) {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return exitcode.AuthError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	cfg.Show = show

	log := logging.New(errOut, cfg.Debug)
	env := &commands.Env{
		Config:           cfg,
		Log:              log,
		RemoteFactory:    d.remote,
		TabSourceFactory: d.tabSource,
	}

	if cmd.NeedsStore() {
		storage, err := d.storage(cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: storage error: %s\n", err)
			return exitcode.BackendError
		}
		defer func() {
			if err := storage.Close(); err != nil {
				log.Warn().Err(err).Msg("closing storage")
			}
		}()

		env.Store, env.Transfer = d.openStore(ctx, cfg, storage, log, out)
	}

	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// openStore loads the lists from storage and prepares the transfer.
func (d *Dispatcher) openStore(ctx context.Context, cfg *config.Config, storage service.Storage, log zerolog.Logger, out io.Writer) (*service.Store, *service.Transfer) {
	opts := []service.StoreOption{
		service.WithClock(d.now),
		service.WithLogger(log),
	}
	if cfg.Show && !cfg.Quiet {
		opts = append(opts, service.WithRenderer(output.NewRenderer(out)))
	}

	store := service.NewStore(storage, opts...)
	store.Load(ctx)

	transfer := service.NewTransfer(store,
		service.WithBackupTag(cfg.BackupTag),
		service.WithTransferClock(d.now),
		service.WithTransferLogger(log),
	)
	return store, transfer
}

// endedByTerminator reports whether flag parsing stopped at a "--" token.
func endedByTerminator(args, positional []string) bool {
	i := len(args) - len(positional) - 1
	return i >= 0 && args[i] == "--"
}

// flagErrorMessage turns a flag package error into a CLI error line.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	// Missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "error: flag needs an argument: " + flagName
	}

	// Unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		return "error: unknown flag: " + flagName
	}

	return "error: " + errStr
}
