package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/diogo/learnchat/internal/api"
	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/exchange"
	"github.com/diogo/learnchat/internal/tui"
)

// fakeTUI records what the commands asked the TUI to run
type fakeTUI struct {
	chatCalls   int
	chatCfg     config.Config
	transport   exchange.Transport
	chatOpts    int
	chatErr     error
	configCalls int
	configPath  string
	configErr   error
}

func (f *fakeTUI) RunChat(transport exchange.Transport, cfg config.Config, opts ...tui.ModelOption) error {
	f.chatCalls++
	f.transport = transport
	f.chatCfg = cfg
	f.chatOpts = len(opts)
	return f.chatErr
}

func (f *fakeTUI) RunConfig(cfg config.Config, configPath string, save func(config.Config) error) error {
	f.configCalls++
	f.configPath = configPath
	if f.configErr != nil {
		return f.configErr
	}
	return save(cfg)
}

// testEnv is a command tree wired to in-memory dependencies
type testEnv struct {
	deps    *Dependencies
	client  *api.MockClient
	tui     *fakeTUI
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	saved   []config.Config
	copied  []string
	clients []config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	env := &testEnv{
		client: &api.MockClient{BaseURLVal: "http://backend.test"},
		tui:    &fakeTUI{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.deps = &Dependencies{
		NewClient: func(cfg config.Config) (api.ClientInterface, error) {
			env.clients = append(env.clients, cfg)
			return env.client, nil
		},
		TUI: env.tui,
		LoadConfig: func() (config.Config, error) {
			return config.DefaultConfig(), nil
		},
		SaveConfig: func(cfg config.Config) error {
			env.saved = append(env.saved, cfg)
			return nil
		},
		Stdin:         strings.NewReader(""),
		Stdout:        env.stdout,
		Stderr:        env.stderr,
		StdinIsPipe:   func() bool { return false },
		StdoutIsTTY:   func() bool { return false },
		TerminalWidth: func() int { return 80 },
		Clipboard: func(text string) error {
			env.copied = append(env.copied, text)
			return nil
		},
	}
	return env
}

func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return cmd.Execute()
}
