package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/learnchat/internal/api"
	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/exchange"
	"github.com/diogo/learnchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(transport exchange.Transport, cfg config.Config, opts ...tui.ModelOption) error
	RunConfig(cfg config.Config, configPath string, save func(config.Config) error) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds the backend client for the resolved config.
	NewClient func(cfg config.Config) (api.ClientInterface, error)

	// TUI is the terminal user interface.
	TUI TUIInterface

	LoadConfig func() (config.Config, error)
	SaveConfig func(config.Config) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsPipe reports whether input is being piped in.
	StdinIsPipe func() bool
	// StdoutIsTTY reports whether output goes to a terminal.
	StdoutIsTTY func() bool
	// TerminalWidth returns the output width, or 0 when unknown.
	TerminalWidth func() int

	Clipboard func(string) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(transport exchange.Transport, cfg config.Config, opts ...tui.ModelOption) error {
	return tui.RunChat(transport, cfg, opts...)
}

func (d *DefaultTUI) RunConfig(cfg config.Config, configPath string, save func(config.Config) error) error {
	return tui.RunConfig(cfg, configPath, save)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:  newClient,
		TUI:        &DefaultTUI{},
		LoadConfig: config.LoadConfig,
		SaveConfig: config.SaveConfig,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		StdinIsPipe: func() bool {
			stat, err := os.Stdin.Stat()
			return err == nil && (stat.Mode()&os.ModeCharDevice) == 0
		},
		StdoutIsTTY: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		TerminalWidth: func() int {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				return 0
			}
			return width
		},
		Clipboard: clipboard.WriteAll,
	}
}

func newClient(cfg config.Config) (api.ClientInterface, error) {
	return api.NewClient(
		api.WithBaseURL(cfg.ServerURL),
		api.WithTimeoutSeconds(cfg.TimeoutSeconds),
	)
}
