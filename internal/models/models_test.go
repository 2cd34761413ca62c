package models

import "testing"

func TestChatReply_DisplayText(t *testing.T) {
	tests := []struct {
		name  string
		reply *ChatReply
		want  string
	}{
		{
			name:  "with source",
			reply: &ChatReply{Message: "hi there", Source: "cache"},
			want:  "hi there [CACHE]",
		},
		{
			name:  "without source",
			reply: &ChatReply{Message: "hi there"},
			want:  "hi there",
		},
		{
			name:  "mixed case source",
			reply: &ChatReply{Message: "ok", Source: "OpenAI"},
			want:  "ok [OPENAI]",
		},
		{
			name:  "nil reply",
			reply: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reply.DisplayText(); got != tt.want {
				t.Errorf("DisplayText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChatReply_TagOmittedWhenEmpty(t *testing.T) {
	r := &ChatReply{Message: "x", Source: ""}
	if tag := r.Tag(); tag != "" {
		t.Errorf("Tag() = %q, want empty", tag)
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystemError} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("bot").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestDefaultHeaders(t *testing.T) {
	h := DefaultHeaders()
	if h["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", h["Content-Type"])
	}
}
