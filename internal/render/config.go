package render

import (
	"github.com/diogo/learnchat/internal/config"
)

// OptionsFromConfig builds render options from the loaded configuration.
// GLAMOUR_STYLE has already been folded into cfg by config.LoadConfig.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	md := cfg.Markdown
	if !md.Enabled {
		opts.Style = StyleNoTTY
	} else if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	return opts
}

// OptionsFromConfigWithWidth is OptionsFromConfig with a specific width
func OptionsFromConfigWithWidth(cfg config.Config, width int) Options {
	return OptionsFromConfig(cfg).WithWidth(width)
}
