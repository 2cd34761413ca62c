package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/learnchat/internal/config"
	apierrors "github.com/diogo/learnchat/internal/errors"
	"github.com/diogo/learnchat/internal/models"
)

func TestRootCommand_Metadata(t *testing.T) {
	cmd := NewRootCmd(newTestEnv(t).deps)
	if cmd.Use != "learnchat [message]" {
		t.Errorf("Use = %q", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}

	want := []string{"chat", "serve", "health", "stats", "knowledge", "config"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	for _, flag := range []string{"-v", "--version"} {
		t.Run(flag, func(t *testing.T) {
			env := newTestEnv(t)
			if err := env.run(flag); err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.HasPrefix(env.stdout.String(), "learnchat "+Version) {
				t.Errorf("stdout = %q", env.stdout.String())
			}
			if len(env.clients) != 0 {
				t.Error("version should not create a client")
			}
		})
	}
}

func TestRootCommand_HelpWithoutInput(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "learnchat serve") {
		t.Errorf("expected help text, got %q", env.stdout.String())
	}
	if env.client.Calls() != 0 {
		t.Error("help should not send anything")
	}
}

func TestRootCommand_QueryRaw(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatVal = &models.ChatReply{Message: "Hello! How can I help you today?", Source: models.SourceDemo, Learned: 1}

	if err := env.run("  hello  "); err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.client.LastMessage != "hello" {
		t.Errorf("sent %q, want trimmed message", env.client.LastMessage)
	}
	if got := env.stdout.String(); got != "Hello! How can I help you today?\n" {
		t.Errorf("stdout = %q", got)
	}
	if !env.client.CloseCalled {
		t.Error("client should be closed")
	}
}

func TestRootCommand_QueryDecorated(t *testing.T) {
	env := newTestEnv(t)
	env.deps.StdoutIsTTY = func() bool { return true }
	env.deps.LoadConfig = func() (config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.CopyToClipboard = true
		return cfg, nil
	}
	env.client.ChatVal = &models.ChatReply{Message: "<b>hi</b>\x1b[31m", Source: models.SourceLearned, Learned: 3}

	if err := env.run("hi"); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "<b>hi</b>") {
		t.Errorf("reply should be printed literally, got %q", out)
	}
	if strings.Contains(out, "\x1b[31m") {
		t.Error("escape sequences from the reply should be stripped")
	}
	if !strings.Contains(out, "learned · 3 learned") {
		t.Errorf("missing provenance footer in %q", out)
	}
	if len(env.copied) != 1 || env.copied[0] != "<b>hi</b>\x1b[31m" {
		t.Errorf("copied = %q", env.copied)
	}
}

func TestRootCommand_RawFlagSkipsDecoration(t *testing.T) {
	env := newTestEnv(t)
	env.deps.StdoutIsTTY = func() bool { return true }
	env.client.ChatVal = &models.ChatReply{Message: "plain", Source: models.SourceDemo}

	if err := env.run("--raw", "hello"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := env.stdout.String(); got != "plain\n" {
		t.Errorf("stdout = %q", got)
	}
	if env.stderr.Len() != 0 {
		t.Errorf("raw mode should not draw a spinner, stderr = %q", env.stderr.String())
	}
}

func TestRootCommand_QueryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatErr = apierrors.NewAPIError(500, "/api/chat", "Error: database is locked")

	err := env.run("hello")
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error should keep its type, got %T", err)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("nothing should be printed on failure, got %q", env.stdout.String())
	}
}

func TestRootCommand_ServerFlag(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatVal = &models.ChatReply{Message: "ok"}

	if err := env.run("-s", "http://other:9000/", "hello"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(env.clients) != 1 || env.clients[0].ServerURL != "http://other:9000" {
		t.Errorf("client config = %+v", env.clients)
	}
}

func TestRootCommand_FileInput(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatVal = &models.ChatReply{Message: "ok"}

	path := filepath.Join(t.TempDir(), "question.txt")
	if err := os.WriteFile(path, []byte("What is Python?\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := env.run("-f", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.client.LastMessage != "What is Python?" {
		t.Errorf("sent %q", env.client.LastMessage)
	}
}

func TestRootCommand_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("-f", filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil || !strings.Contains(err.Error(), "failed to read file") {
		t.Errorf("err = %v", err)
	}
}

func TestRootCommand_StdinPipe(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatVal = &models.ChatReply{Message: "ok"}
	env.deps.StdinIsPipe = func() bool { return true }
	env.deps.Stdin = strings.NewReader("from stdin\n")

	if err := env.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.client.LastMessage != "from stdin" {
		t.Errorf("sent %q", env.client.LastMessage)
	}
}

func TestRootCommand_BlankInput(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("   ")
	if !errors.Is(err, apierrors.ErrEmptyMessage) {
		t.Errorf("err = %v", err)
	}
	if env.client.Calls() != 0 {
		t.Error("blank input must not be sent")
	}
}

func TestRootCommand_OutputText(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatVal = &models.ChatReply{Message: "saved reply", Source: models.SourceDemo}
	path := filepath.Join(t.TempDir(), "reply.txt")

	if err := env.run("hello", "-o", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "saved reply\n" {
		t.Errorf("file = %q", data)
	}
}

func TestRootCommand_OutputHTML(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatVal = &models.ChatReply{Message: "<i>reply</i>", Source: models.SourceDemo}
	path := filepath.Join(t.TempDir(), "chat.html")

	if err := env.run("<script>alert(1)</script>", "-o", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if !strings.Contains(doc, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Error("user text should be escaped")
	}
	if !strings.Contains(doc, "&lt;i&gt;reply&lt;/i&gt; [DEMO]") {
		t.Error("reply should be escaped and tagged")
	}
	if strings.Contains(doc, "<script>alert") || strings.Contains(doc, "provisional\"") {
		t.Error("document should hold no live markup or placeholder")
	}
}

func TestRootCommand_OutputHTMLOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.client.ChatErr = apierrors.NewNetworkError("chat", context.DeadlineExceeded)
	path := filepath.Join(t.TempDir(), "chat.htm")

	if err := env.run("hello", "-o", path); err == nil {
		t.Fatal("expected the failure to be returned")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("transcript should still be written: %v", err)
	}
	if !strings.Contains(string(data), "system-error-message") {
		t.Errorf("missing error entry in %q", data)
	}
}

func TestConfigFlags(t *testing.T) {
	env := newTestEnv(t)
	env.deps.LoadConfig = func() (config.Config, error) {
		return config.DefaultConfig(), errors.New("config file is corrupt")
	}
	a := &app{deps: env.deps, verboseFlag: true}

	cfg := a.config()
	if !cfg.Verbose {
		t.Error("--verbose should enable verbose")
	}
	if !strings.Contains(env.stderr.String(), "Warning: config file is corrupt") {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestBubbleWidth(t *testing.T) {
	tests := []struct {
		terminal int
		want     int
	}{
		{0, 40},
		{60, 56},
		{300, 120},
	}
	for _, tt := range tests {
		env := newTestEnv(t)
		env.deps.TerminalWidth = func() int { return tt.terminal }
		a := &app{deps: env.deps}
		if got := a.bubbleWidth(); got != tt.want {
			t.Errorf("bubbleWidth(%d) = %d, want %d", tt.terminal, got, tt.want)
		}
	}
}
