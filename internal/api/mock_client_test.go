package api_test

import (
	"context"
	"testing"

	"github.com/diogo/learnchat/internal/api"
	"github.com/diogo/learnchat/internal/models"
)

func TestMockClient(t *testing.T) {
	mock := &api.MockClient{
		ChatVal: &models.ChatReply{Message: "Mock response", Source: "demo"},
	}

	// Verify interface compliance
	var client api.ClientInterface = mock

	reply, err := client.Chat(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if reply.DisplayText() != "Mock response [DEMO]" {
		t.Errorf("Expected 'Mock response [DEMO]', got '%s'", reply.DisplayText())
	}

	if mock.Calls() != 1 {
		t.Errorf("Expected 1 call, got %d", mock.Calls())
	}

	if mock.LastMessage != "Hello" {
		t.Errorf("Expected message 'Hello', got '%s'", mock.LastMessage)
	}
}
