// Package transcript is the append-only view of exchanged chat messages.
//
// A Transcript keeps entries in insertion order, renders every entry as
// escaped display markup and asks its Scroller to keep the newest entry
// visible. Text is never interpreted as markup.
package transcript

import (
	"strings"
	"sync"

	"github.com/diogo/learnchat/internal/models"
)

// Handle identifies an appended entry. The zero Handle never refers to an entry.
type Handle uint64

// Scroller is implemented by display surfaces that can reveal the newest entry
type Scroller interface {
	ScrollToBottom()
}

// Entry is one message in the transcript together with its handle
type Entry struct {
	Handle  Handle
	Message models.Message
}

// Markup returns the entry's display node with the text escaped
func (e Entry) Markup() string {
	return Node(e.Message)
}

// Transcript is an ordered, append-only sequence of messages. It is safe for
// concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	entries  []Entry
	next     Handle
	scroller Scroller
}

// Option configures a Transcript
type Option func(*Transcript)

// WithScroller attaches the surface notified after every append
func WithScroller(s Scroller) Option {
	return func(t *Transcript) {
		t.scroller = s
	}
}

// New creates an empty transcript
func New(opts ...Option) *Transcript {
	t := &Transcript{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetScroller replaces the surface notified after every append
func (t *Transcript) SetScroller(s Scroller) {
	t.mu.Lock()
	t.scroller = s
	t.mu.Unlock()
}

// Append adds a permanent entry and returns its handle
func (t *Transcript) Append(text string, role models.Role) Handle {
	return t.append(models.Message{Text: text, Role: role})
}

// AppendProvisional adds a placeholder entry that is expected to be removed
// once the exchange it stands for resolves
func (t *Transcript) AppendProvisional(text string, role models.Role) Handle {
	return t.append(models.Message{Text: text, Role: role, Provisional: true})
}

func (t *Transcript) append(msg models.Message) Handle {
	t.mu.Lock()
	t.next++
	h := t.next
	t.entries = append(t.entries, Entry{Handle: h, Message: msg})
	scroller := t.scroller
	t.mu.Unlock()

	// Called without the lock so the surface may read the transcript back.
	if scroller != nil {
		scroller.ScrollToBottom()
	}
	return h
}

// Remove detaches the entry for h. Removing an unknown or already removed
// handle is a no-op.
func (t *Transcript) Remove(h Handle) {
	if h == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if e.Handle == h {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Contains reports whether h still refers to an entry
func (t *Transcript) Contains(h Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.entries {
		if e.Handle == h {
			return true
		}
	}
	return false
}

// Len returns the number of entries
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of the entries in display order
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Messages returns a copy of the messages in display order
func (t *Transcript) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Message, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Message
	}
	return out
}

// Last returns the newest entry
func (t *Transcript) Last() (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

// LastOf returns the newest permanent entry with the given role
func (t *Transcript) LastOf(role models.Role) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.Message.Role == role && !e.Message.Provisional {
			return e, true
		}
	}
	return Entry{}, false
}

// HTML renders the whole transcript as a container of escaped display nodes
func (t *Transcript) HTML() string {
	entries := t.Entries()

	var sb strings.Builder
	sb.WriteString(`<div class="chat-container">`)
	for _, e := range entries {
		sb.WriteString("\n  ")
		sb.WriteString(e.Markup())
	}
	if len(entries) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// Plain renders the transcript as terminal-safe text, one entry per block
func (t *Transcript) Plain() string {
	entries := t.Entries()

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, PlainLine(e.Message))
	}
	return strings.Join(blocks, "\n")
}

// documentHead styles the exported page after the chat widget
const documentHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>learnchat transcript</title>
<style>
body { font-family: sans-serif; background: #1a1b26; color: #c0caf5; }
.chat-container { max-width: 48rem; margin: 2rem auto; }
.message { margin: 0.5rem 0; padding: 0.5rem 1rem; border-radius: 0.5rem; white-space: pre-wrap; }
.user-message { background: #24283b; border-left: 3px solid #7aa2f7; margin-left: 3rem; }
.assistant-message { background: #24283b; border-left: 3px solid #9ece6a; margin-right: 3rem; }
.system-error-message { border-left: 3px solid #f7768e; color: #f7768e; }
.provisional { font-style: italic; opacity: 0.6; }
</style>
</head>
<body>
`

// Document wraps HTML in a standalone page
func (t *Transcript) Document() string {
	return documentHead + t.HTML() + "\n</body>\n</html>\n"
}
