// Package commands provides CLI commands for learnchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// app carries the dependencies and global flag values shared by every
// command of one invocation
type app struct {
	deps *Dependencies

	serverFlag  string
	verboseFlag bool
	outputFlag  string
	fileFlag    string
	rawFlag     bool
}

// NewRootCmd builds the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	a := &app{deps: deps}

	rootCmd := &cobra.Command{
		Use:   "learnchat [message]",
		Short: "A chat client that learns from its conversations",
		Long: `learnchat talks to a small backend that answers from what it has learned,
from an OpenAI model when one is configured, or from a built-in demo table.
Every exchange is remembered, so repeated questions get learned answers.

Examples:
  learnchat serve                       Start the backend
  learnchat chat                        Open the chat widget
  learnchat "What is Python?"           Send a single message
  learnchat -f question.txt             Read the message from a file
  echo "hello" | learnchat              Read the message from stdin
  learnchat "hello" -o chat.html        Save the exchange as HTML
  learnchat stats                       Show what the backend has learned`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "learnchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if a.fileFlag != "" {
				data, err := os.ReadFile(a.fileFlag)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return a.runQuery(cmd.Context(), string(data))
			}

			if len(args) > 0 {
				return a.runQuery(cmd.Context(), args[0])
			}

			if deps.StdinIsPipe() {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return a.runQuery(cmd.Context(), string(data))
			}

			return cmd.Help()
		},
	}

	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	rootCmd.PersistentFlags().StringVarP(&a.serverFlag, "server", "s", "", "Backend URL (overrides server_url)")
	rootCmd.PersistentFlags().BoolVar(&a.verboseFlag, "verbose", false, "Log exchanges to stderr")
	rootCmd.Flags().StringVarP(&a.outputFlag, "output", "o", "", "Save the reply to a file (.html saves the transcript)")
	rootCmd.Flags().StringVarP(&a.fileFlag, "file", "f", "", "Read the message from a file")
	rootCmd.Flags().BoolVar(&a.rawFlag, "raw", false, "Print only the reply text")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(
		newChatCmd(a),
		newServeCmd(a),
		newHealthCmd(a),
		newStatsCmd(a),
		newKnowledgeCmd(a),
		NewConfigCmd(a),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	deps := NewDependencies()
	if err := NewRootCmd(deps).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(deps.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}

// config loads the configuration and applies the global flags. A broken
// config file is reported and the defaults are used.
func (a *app) config() config.Config {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		fmt.Fprintf(a.deps.Stderr, "Warning: %v\n", err)
	}
	if a.serverFlag != "" {
		cfg.ServerURL = strings.TrimRight(a.serverFlag, "/")
	}
	if a.verboseFlag {
		cfg.Verbose = true
	}
	return cfg
}

// logger returns the client-side logger: silent unless verbose
func (a *app) logger(cfg config.Config) *zap.Logger {
	if !cfg.Verbose {
		return zap.NewNop()
	}
	return newLogger(a.deps.Stderr, zap.DebugLevel, false)
}
