package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tabnotes/internal/cli"
	"tabnotes/internal/commands"
	"tabnotes/internal/config"
	"tabnotes/internal/exitcode"
	"tabnotes/internal/pagetitle"
	"tabnotes/internal/service"
	"tabnotes/internal/testutil"
)

// testFactory creates a storage factory that returns the given MemStorage.
func testFactory(storage *testutil.MemStorage) cli.StorageFactory {
	return func(cfg *config.Config) (service.Storage, error) {
		return storage, nil
	}
}

// newDispatcher isolates config lookup and wires in-memory fakes.
func newDispatcher(t *testing.T, storage *testutil.MemStorage) *cli.Dispatcher {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{config.EnvStorage, config.EnvBackupTag, config.EnvFetchTitles, config.EnvFetchTimeout} {
		t.Setenv(k, "")
	}

	return cli.NewDispatcher(commands.DefaultRegistry, testFactory(storage),
		cli.WithClock(testutil.FixedClock),
		cli.WithTabSource(func(cfg *config.Config, rawURL string) service.TabSource {
			return pagetitle.StaticSource(rawURL, "Example Domain")
		}),
	)
}

func run(d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	_, stderr, code := run(dispatcher, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	_, stderr, code := run(dispatcher, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, func(cfg *config.Config) (service.Storage, error) {
		t.Error("help should not open storage")
		return nil, errors.New("unexpected")
	})
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	stdout, stderr, code := run(dispatcher, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	stdout, stderr, code := run(dispatcher, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "tabnotes 0.1.0\n" {
		t.Errorf("expected 'tabnotes 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	_, stderr, code := run(dispatcher, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	_, stderr, code := run(dispatcher, "tab", "--name")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -name\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	stdout, stderr, code := run(dispatcher)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "nothing saved\n" {
		t.Errorf("expected %q, got %q", "nothing saved\n", stdout)
	}
}

func TestDispatcher_CommandsShareStorage(t *testing.T) {
	storage := testutil.NewMemStorage()
	dispatcher := newDispatcher(t, storage)

	if _, stderr, code := run(dispatcher, "note", "first", "note"); code != exitcode.Success {
		t.Fatalf("note failed: %s", stderr)
	}
	if _, stderr, code := run(dispatcher, "tab", "https://example.com"); code != exitcode.Success {
		t.Fatalf("tab failed: %s", stderr)
	}
	if _, stderr, code := run(dispatcher, "add", "second"); code != exitcode.Success {
		t.Fatalf("add alias failed: %s", stderr)
	}

	stdout, _, code := run(dispatcher, "list")
	if code != exitcode.Success {
		t.Fatalf("list failed with %d", code)
	}
	want := "------------\nNotes (2)\n------------\n" +
		"   1  second  (05/03/2024)\n" +
		"   2  first note  (05/03/2024)\n" +
		"------------\nTabs (1)\n------------\n" +
		"   1  Example Domain  (05/03/2024)\n" +
		"      https://example.com\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestDispatcher_ShowRendersChangedList(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	stdout, _, code := run(dispatcher, "note", "--show", "hello")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	want := "------------\nNotes (1)\n------------\n   1  hello  (05/03/2024)\nok\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestDispatcher_QuietSuppressesOK(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())

	stdout, _, code := run(dispatcher, "note", "--quiet", "--show", "hello")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
}

func TestDispatcher_StorageError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, func(cfg *config.Config) (service.Storage, error) {
		return nil, errors.New("storage is locked by another process")
	})

	_, stderr, code := run(dispatcher, "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "error: storage error: storage is locked by another process\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_ConfigError(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("storage: redis\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := run(dispatcher, "list", "--config", dir)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: config error: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_BackupTagFromConfig(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewMemStorage())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("backup_tag: laptop\n"), 0600); err != nil {
		t.Fatal(err)
	}
	outDir := t.TempDir()

	stdout, stderr, code := run(dispatcher, "export", "--config", dir, "--out", outDir)

	if code != exitcode.Success {
		t.Fatalf("export failed: %s", stderr)
	}
	want := filepath.Join(outDir, "links_notes_laptop_extension_backup_05_03_2024.json")
	if stdout != want+"\n" {
		t.Errorf("expected %q, got %q", want+"\n", stdout)
	}
}

func TestDispatcher_RecoversCorruptStorage(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, "{corrupt")
	dispatcher := newDispatcher(t, storage)

	stdout, stderr, code := run(dispatcher, "list")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "nothing saved\n" {
		t.Errorf("expected %q, got %q", "nothing saved\n", stdout)
	}
	if !strings.Contains(stderr, "starting with empty notes") {
		t.Errorf("expected a warning on stderr, got %q", stderr)
	}
}

func TestDispatcher_TerminatorAllowsLeadingDash(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"note", "--", "-5", "degrees"}, `"text":"-5 degrees"`},
		{[]string{"note", "--", "-", "buy", "milk"}, `"text":"- buy milk"`},
		{[]string{"note", "--quiet", "--", "--verbose", "is", "a", "flag"}, `"text":"--verbose is a flag"`},
	}

	for _, tt := range tests {
		storage := testutil.NewMemStorage()
		dispatcher := newDispatcher(t, storage)

		_, stderr, code := run(dispatcher, tt.args...)

		if code != exitcode.Success {
			t.Errorf("%v: expected exit code %d, got %d (%s)", tt.args, exitcode.Success, code, stderr)
			continue
		}
		if !strings.Contains(storage.Value(service.NotesKey), tt.want) {
			t.Errorf("%v: expected stored %s, got %s", tt.args, tt.want, storage.Value(service.NotesKey))
		}
	}
}

func TestDispatcher_LeadingDashWithoutTerminator(t *testing.T) {
	storage := testutil.NewMemStorage()
	dispatcher := newDispatcher(t, storage)

	_, stderr, code := run(dispatcher, "note", "-", "buy", "milk")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown flag: -\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if storage.Puts() != 0 {
		t.Error("nothing should be stored")
	}
}
