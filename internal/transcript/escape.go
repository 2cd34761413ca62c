package transcript

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"github.com/diogo/learnchat/internal/models"
)

// Escape replaces &, <, >, " and ' with their entity forms
func Escape(text string) string {
	return html.EscapeString(text)
}

// Node renders a message as a display node:
//
//	<div class="message user-message"><p>escaped text</p></div>
func Node(msg models.Message) string {
	class := "message " + msg.Role.String() + "-message"
	if msg.Provisional {
		class += " provisional"
	}
	return fmt.Sprintf(`<div class="%s"><p>%s</p></div>`, class, Escape(msg.Text))
}

// TerminalSafe strips ANSI escape sequences and other control characters so
// untrusted text cannot drive the terminal. Newlines and tabs survive.
func TerminalSafe(text string) string {
	stripped := ansi.Strip(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, stripped)
}

// Label returns the speaker label shown before a message in text surfaces
func Label(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "You"
	case models.RoleAssistant:
		return "Bot"
	default:
		return ""
	}
}

// PlainLine renders one message as terminal-safe text
func PlainLine(msg models.Message) string {
	text := TerminalSafe(msg.Text)
	if label := Label(msg.Role); label != "" {
		return label + ": " + text
	}
	return text
}
