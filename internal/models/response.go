package models

import (
	"strings"
	"time"
)

// ChatRequest is the body posted to the chat endpoint
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is an accepted answer from the chat endpoint
type ChatReply struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"` // provenance tag, may be empty
	Learned int    `json:"learned,omitempty"`
}

// Tag returns the bracketed provenance tag, or "" when the reply has none
func (r *ChatReply) Tag() string {
	if r == nil || r.Source == "" {
		return ""
	}
	return " [" + strings.ToUpper(r.Source) + "]"
}

// DisplayText returns the text shown in the transcript for this reply
func (r *ChatReply) DisplayText() string {
	if r == nil {
		return ""
	}
	return r.Message + r.Tag()
}

// ErrorReply is the body the backend sends with a rejection
type ErrorReply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health is returned by the health endpoint
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Stats summarizes what the backend has learned
type Stats struct {
	TotalLearnedQA     int `json:"total_learned_qa"`
	TotalMessages      int `json:"total_messages"`
	TotalConversations int `json:"total_conversations"`
}

// LearnedQA is a question/answer pair stored by the knowledge base
type LearnedQA struct {
	ID       string
	Question string
	Response string
	Keywords []string
	Count    int
	Created  time.Time
	Updated  time.Time
}

// KnowledgeEntry is the exported, human-readable form of a LearnedQA
type KnowledgeEntry struct {
	Q    string `json:"Q"`
	A    string `json:"A"`
	Uses int    `json:"Uses"`
}
