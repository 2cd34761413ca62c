package api

import (
	"context"
	"sync"

	"github.com/diogo/learnchat/internal/models"
)

// MockClient is a mock implementation of ClientInterface for testing
type MockClient struct {
	// Mock return values
	ChatVal      *models.ChatReply
	ChatErr      error
	ChatFunc     func(ctx context.Context, message string) (*models.ChatReply, error)
	HealthVal    *models.Health
	HealthErr    error
	StatsVal     *models.Stats
	StatsErr     error
	KnowledgeVal []models.KnowledgeEntry
	KnowledgeErr error
	BaseURLVal   string

	// Call counters/recorders
	mu          sync.Mutex
	ChatCalls   int
	LastMessage string
	CloseCalled bool
}

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	m.mu.Lock()
	m.ChatCalls++
	m.LastMessage = message
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, message)
	}
	return m.ChatVal, m.ChatErr
}

// Calls returns the number of Chat calls so far
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ChatCalls
}

func (m *MockClient) Health(ctx context.Context) (*models.Health, error) {
	return m.HealthVal, m.HealthErr
}

func (m *MockClient) Stats(ctx context.Context) (*models.Stats, error) {
	return m.StatsVal, m.StatsErr
}

func (m *MockClient) Knowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	return m.KnowledgeVal, m.KnowledgeErr
}

func (m *MockClient) BaseURL() string {
	return m.BaseURLVal
}

func (m *MockClient) Close() {
	m.CloseCalled = true
}
