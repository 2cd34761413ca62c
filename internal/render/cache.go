package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

const (
	// maxOptionSets caps how many distinct option sets keep idle renderers.
	// Widths change on every terminal resize, so old sets are dropped.
	maxOptionSets = 8
	// maxIdlePerSet caps the idle renderers kept for one option set
	maxIdlePerSet = 4
)

// rendererCache hands out glamour renderers by option set. A
// glamour.TermRenderer must not be shared by concurrent Render calls, so a
// renderer is checked out by get and returned by put.
type rendererCache struct {
	mu   sync.Mutex
	idle map[Options][]*glamour.TermRenderer
}

var renderers = &rendererCache{
	idle: make(map[Options][]*glamour.TermRenderer),
}

func (c *rendererCache) get(opts Options) (*glamour.TermRenderer, error) {
	c.mu.Lock()
	if free := c.idle[opts]; len(free) > 0 {
		r := free[len(free)-1]
		c.idle[opts] = free[:len(free)-1]
		c.mu.Unlock()
		return r, nil
	}
	if _, ok := c.idle[opts]; !ok {
		if len(c.idle) >= maxOptionSets {
			c.idle = make(map[Options][]*glamour.TermRenderer)
		}
		c.idle[opts] = nil
	}
	c.mu.Unlock()

	return newRenderer(opts)
}

func (c *rendererCache) put(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	free, ok := c.idle[opts]
	if !ok || len(free) >= maxIdlePerSet {
		return
	}
	c.idle[opts] = append(free, r)
}

func (c *rendererCache) idleCount(opts Options) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idle[opts])
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every idle renderer
func ClearCache() {
	renderers.mu.Lock()
	renderers.idle = make(map[Options][]*glamour.TermRenderer)
	renderers.mu.Unlock()
}

// CacheSize returns the number of option sets currently tracked
func CacheSize() int {
	renderers.mu.Lock()
	defer renderers.mu.Unlock()
	return len(renderers.idle)
}
