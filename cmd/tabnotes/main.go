// Package main is the entry point for the tabnotes CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tabnotes/internal/backend/boltkv"
	"tabnotes/internal/backend/gdrive"
	"tabnotes/internal/backend/sqlitekv"
	"tabnotes/internal/cli"
	"tabnotes/internal/commands"
	"tabnotes/internal/config"
	"tabnotes/internal/logging"
	"tabnotes/internal/pagetitle"
	"tabnotes/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	storage := func(cfg *config.Config) (service.Storage, error) {
		if cfg.StorageBackend() == config.StorageSQLite {
			return sqlitekv.Open(filepath.Join(cfg.Dir, sqlitekv.FileName))
		}
		return boltkv.Open(filepath.Join(cfg.Dir, boltkv.FileName))
	}

	remote := func(ctx context.Context, cfg *config.Config) (service.Remote, error) {
		return gdrive.New(ctx, cfg)
	}

	tabSource := func(cfg *config.Config, rawURL string) service.TabSource {
		log := logging.New(os.Stderr, cfg.Debug)
		return pagetitle.New(nil, cfg.FetchTimeout, log).Source(rawURL)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, storage,
		cli.WithRemote(remote),
		cli.WithTabSource(tabSource),
	)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
