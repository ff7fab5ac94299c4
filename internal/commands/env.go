package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"tabnotes/internal/config"
	"tabnotes/internal/exitcode"
	"tabnotes/internal/pagetitle"
	"tabnotes/internal/service"
)

// RemoteFactory creates the remote backup client on demand.
type RemoteFactory func(ctx context.Context, cfg *config.Config) (service.Remote, error)

// TabSourceFactory returns the active-tab source for a URL given on the
// command line.
type TabSourceFactory func(cfg *config.Config, rawURL string) service.TabSource

// errNoRemote is returned when no remote backend is wired in.
var errNoRemote = errors.New("remote backups are not available")

// Env carries everything a command may need.
type Env struct {
	Config   *config.Config
	Store    *service.Store
	Transfer *service.Transfer
	Log      zerolog.Logger

	RemoteFactory    RemoteFactory
	TabSourceFactory TabSourceFactory
}

// Remote creates the remote backup client.
func (e *Env) Remote(ctx context.Context) (service.Remote, error) {
	if e.RemoteFactory == nil {
		return nil, errNoRemote
	}
	return e.RemoteFactory(ctx, e.Config)
}

// TabSource returns the active-tab source for rawURL. fetch is false when
// the page must not be requested.
func (e *Env) TabSource(rawURL string, fetch bool) service.TabSource {
	if !fetch || !e.Config.FetchTitles || e.TabSourceFactory == nil {
		return pagetitle.StaticSource(rawURL, "")
	}
	return e.TabSourceFactory(e.Config, rawURL)
}

// reportStoreError prints a failed store write and returns BackendError.
func reportStoreError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: storage error: %v\n", err)
	return exitcode.BackendError
}

// reportRemoteError prints a remote failure and returns the matching code.
func reportRemoteError(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrAuth) {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}
	if errors.Is(err, errNoRemote) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
