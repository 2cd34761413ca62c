package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/render"
	"github.com/diogo/learnchat/internal/tui"
)

// healthCheckTimeout bounds the reachability probe before the widget opens
const healthCheckTimeout = 3 * time.Second

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat widget",
		Long: `Open the chat widget against the configured backend.

Each message is sent once; while a reply is pending the input is disabled.
Replies are tagged with their source, and failures appear in the transcript
as error entries. Press F1 inside the widget for key bindings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

func (a *app) runChat(ctx context.Context) error {
	cfg := a.config()

	client, err := a.deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	// An unreachable backend is reported but does not block the widget;
	// each exchange reports its own failure.
	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	if _, err := client.Health(probeCtx); err != nil {
		fmt.Fprintln(a.deps.Stderr, tui.FormatError(err))
	}
	cancel()

	configDir, err := config.GetConfigDir()
	if err != nil {
		configDir = "."
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		var closeLog func()
		logger, closeLog = fileLogger(filepath.Join(configDir, "chat.log"), zap.DebugLevel)
		defer closeLog()
	}

	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		tui.UpdateTheme()
	}

	return a.deps.TUI.RunChat(client, cfg,
		tui.WithLogger(logger),
		tui.WithExportDir(filepath.Join(configDir, "exports")),
	)
}
