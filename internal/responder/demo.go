package responder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/diogo/learnchat/internal/models"
)

// DemoEntry maps a keyword to a canned answer
type DemoEntry struct {
	Keyword string `yaml:"keyword"`
	Answer  string `yaml:"answer"`
}

// demoFile is the YAML layout of a demo-response override file
type demoFile struct {
	Default   string      `yaml:"default"`
	Responses []DemoEntry `yaml:"responses"`
}

// DefaultDemoAnswer is returned when no keyword matches
const DefaultDemoAnswer = "That's an interesting question! In demo mode, I can provide helpful responses. For more advanced AI features, please configure an OpenAI API key."

// defaultDemoEntries are checked in order; the first keyword contained in
// the message wins
var defaultDemoEntries = []DemoEntry{
	{Keyword: "hello", Answer: "Hello! How can I help you today?"},
	{Keyword: "hi", Answer: "Hi there! What can I do for you?"},
	{Keyword: "how are you", Answer: "I'm doing great, thanks for asking! How about you?"},
	{Keyword: "what is ai", Answer: "AI (Artificial Intelligence) refers to computer systems designed to perform tasks that typically require human intelligence."},
	{Keyword: "what is python", Answer: "Python is a popular programming language known for its simplicity and readability."},
	{Keyword: "help", Answer: "You can ask me questions about anything! Try asking me about AI, Python, or just say hello."},
	{Keyword: "thank you", Answer: "You're welcome! If you have more questions, feel free to ask."},
}

// Demo answers from a fixed keyword table. It never fails.
type Demo struct {
	entries  []DemoEntry
	fallback string
}

var _ Responder = (*Demo)(nil)

// NewDemo returns the built-in keyword table
func NewDemo() *Demo {
	entries := make([]DemoEntry, len(defaultDemoEntries))
	copy(entries, defaultDemoEntries)
	return &Demo{entries: entries, fallback: DefaultDemoAnswer}
}

// LoadDemo returns the built-in table with the overrides in the YAML file
// at path applied. An entry whose keyword already exists replaces that
// answer in place; new keywords are checked after the built-in ones.
func LoadDemo(path string) (*Demo, error) {
	d := NewDemo()
	if path == "" {
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read demo responses: %w", err)
	}

	var file demoFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse demo responses: %w", err)
	}

	if file.Default != "" {
		d.fallback = file.Default
	}
	for _, e := range file.Responses {
		keyword := strings.ToLower(strings.TrimSpace(e.Keyword))
		if keyword == "" || e.Answer == "" {
			continue
		}
		d.set(keyword, e.Answer)
	}
	return d, nil
}

func (d *Demo) set(keyword, answer string) {
	for i := range d.entries {
		if d.entries[i].Keyword == keyword {
			d.entries[i].Answer = answer
			return
		}
	}
	d.entries = append(d.entries, DemoEntry{Keyword: keyword, Answer: answer})
}

// Entries returns the keyword table in match order
func (d *Demo) Entries() []DemoEntry {
	out := make([]DemoEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Answer returns the canned answer for message
func (d *Demo) Answer(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, e := range d.entries {
		if strings.Contains(lower, e.Keyword) {
			return e.Answer
		}
	}
	return d.fallback
}

// Respond implements Responder
func (d *Demo) Respond(_ context.Context, message string) (Answer, error) {
	return Answer{Text: d.Answer(message), Source: models.SourceDemo}, nil
}
