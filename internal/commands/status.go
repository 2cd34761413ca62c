package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/learnchat/internal/api"
	"github.com/diogo/learnchat/internal/config"
	"github.com/diogo/learnchat/internal/render"
)

// knowledgeCellWidth bounds the question and answer columns of the report
const knowledgeCellWidth = 60

// withClient runs fn against a client for the resolved config
func (a *app) withClient(fn func(cfg config.Config, client api.ClientInterface) error) error {
	cfg := a.config()
	client, err := a.deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()
	return fn(cfg, client)
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(cfg config.Config, client api.ClientInterface) error {
				health, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.deps.Stdout, "%s %s (version %s) at %s\n",
					successStyle().Render("✓"), health.Status, health.Version, client.BaseURL())
				return nil
			})
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what the backend has learned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(cfg config.Config, client api.ClientInterface) error {
				stats, err := client.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(a.deps.Stdout, stats)
				}
				return a.printMarkdown(cfg, render.StatsReport(stats))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON")
	return cmd
}

func newKnowledgeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "knowledge",
		Aliases: []string{"kb"},
		Short:   "List the learned question and answer pairs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(cfg config.Config, client api.ClientInterface) error {
				entries, err := client.Knowledge(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(a.deps.Stdout, entries)
				}
				return a.printMarkdown(cfg, render.KnowledgeReport(entries, knowledgeCellWidth))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON")
	return cmd
}

// printMarkdown renders a generated report through glamour when markdown is
// enabled and stdout is a terminal, and prints the source otherwise
func (a *app) printMarkdown(cfg config.Config, md string) error {
	if !cfg.Markdown.Enabled || !a.deps.StdoutIsTTY() {
		_, err := io.WriteString(a.deps.Stdout, md)
		return err
	}

	width := a.deps.TerminalWidth()
	if width <= 0 {
		width = 80
	}
	out, err := render.Markdown(md, render.OptionsFromConfigWithWidth(cfg, width))
	if err != nil {
		out = md
	}
	_, err = io.WriteString(a.deps.Stdout, strings.TrimRight(out, "\n")+"\n")
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
