package render

import (
	"fmt"
	"strings"

	"github.com/diogo/learnchat/internal/models"
	"github.com/diogo/learnchat/internal/transcript"
)

// Markdown renders markdown content for terminal display using a cached
// renderer
func Markdown(content string, opts Options) (string, error) {
	renderer, err := renderers.get(opts)
	if err != nil {
		return "", err
	}
	defer renderers.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at the given width
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	".", `\.`,
	"!", `\!`,
	"|", `\|`,
	"<", `\<`,
	">", `\>`,
	"{", `\{`,
	"}", `\}`,
	"~", `\~`,
	":", `\:`,
)

// EscapeMarkdown makes untrusted text inert inside a markdown document.
// Control sequences are stripped and line breaks folded so the text stays
// within one paragraph or table cell.
func EscapeMarkdown(text string) string {
	text = transcript.TerminalSafe(text)
	text = strings.Join(strings.Fields(text), " ")
	return markdownEscaper.Replace(text)
}

// StatsReport builds the markdown for the backend learning statistics
func StatsReport(stats *models.Stats) string {
	var sb strings.Builder
	sb.WriteString("# Knowledge base\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|---|---:|\n")
	fmt.Fprintf(&sb, "| Learned Q&A | %d |\n", stats.TotalLearnedQA)
	fmt.Fprintf(&sb, "| Messages | %d |\n", stats.TotalMessages)
	fmt.Fprintf(&sb, "| Conversations | %d |\n", stats.TotalConversations)
	return sb.String()
}

// KnowledgeReport builds the markdown table of learned pairs. Cell text
// longer than maxCell runes is truncated; zero disables truncation.
func KnowledgeReport(entries []models.KnowledgeEntry, maxCell int) string {
	var sb strings.Builder
	sb.WriteString("# Learned answers\n\n")

	if len(entries) == 0 {
		sb.WriteString("Nothing learned yet.\n")
		return sb.String()
	}

	sb.WriteString("| Question | Answer | Uses |\n")
	sb.WriteString("|---|---|---:|\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "| %s | %s | %d |\n",
			EscapeMarkdown(truncate(e.Q, maxCell)),
			EscapeMarkdown(truncate(e.A, maxCell)),
			e.Uses,
		)
	}
	return sb.String()
}

// HelpText is the markdown shown by the chat widget's help toggle
const HelpText = `# learnchat

Type a message and press **Enter** to send it.

| Key | Action |
|---|---|
| Enter | send |
| Ctrl+Y | copy the last reply |
| Ctrl+E | export the transcript as HTML |
| PgUp / PgDn | scroll the transcript |
| F1 | toggle this help |
| Esc | close this help, or quit |
| Ctrl+C | quit |

Replies are tagged with where they came from: **[LEARNED]** answers were
remembered from earlier conversations.
`

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
