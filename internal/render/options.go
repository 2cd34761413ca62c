// Package render turns learnchat reports into styled terminal output.
//
// Backend text is untrusted: it is escaped before it is placed in any
// markdown document handed to glamour, so only markup written here is
// ever interpreted.
package render

// Built-in glamour styles
const (
	StyleDark    = "dark"
	StyleLight   = "light"
	StyleNoTTY   = "notty"
	StyleASCII   = "ascii"
	StyleDracula = "dracula"
)

// Options configures the markdown renderer
type Options struct {
	// Width is the word-wrap column (default: 80)
	Width int

	// Style is a glamour style name or a path to a JSON style file
	Style string

	// EnableEmoji converts :emoji: shortcodes to unicode
	EnableEmoji bool

	// PreserveNewLines keeps single line breaks
	PreserveNewLines bool

	// TableWrap wraps long table cells instead of truncating them
	TableWrap bool

	// InlineTableLinks renders links inside tables inline
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns Options with the specified width
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithEmoji returns Options with emoji conversion enabled/disabled
func (o Options) WithEmoji(enabled bool) Options {
	o.EnableEmoji = enabled
	return o
}

// WithTableWrap returns Options with table wrap enabled/disabled
func (o Options) WithTableWrap(enabled bool) Options {
	o.TableWrap = enabled
	return o
}

// AvailableStyles lists the glamour styles accepted without a file path
func AvailableStyles() []string {
	return []string{StyleDark, StyleLight, StyleDracula, StyleNoTTY, StyleASCII}
}

// IsBuiltinStyle reports whether style names a glamour built-in
func IsBuiltinStyle(style string) bool {
	for _, s := range AvailableStyles() {
		if s == style {
			return true
		}
	}
	return false
}
