// Package responder produces the backend's answers: a learned answer when
// the knowledge base has one, otherwise the upstream model when configured,
// otherwise the demo keyword table.
package responder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/diogo/learnchat/internal/models"
)

// Answer is a reply text with its provenance tag
type Answer struct {
	Text   string
	Source string
}

// Responder produces an answer for one message
type Responder interface {
	Respond(ctx context.Context, message string) (Answer, error)
}

// KnowledgeBase is the learning store the chain reads from and records into
type KnowledgeBase interface {
	LearnedResponse(ctx context.Context, question string) (*models.LearnedQA, bool, error)
	AddConversation(ctx context.Context, question, response string) error
	Count(ctx context.Context) (int, error)
}

// Chain answers from the knowledge base, then the upstream responder, then
// the demo table, and records every exchange it answers
type Chain struct {
	kb       KnowledgeBase
	upstream Responder
	demo     *Demo
	logger   *zap.Logger
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithUpstream sets the model consulted when nothing learned matches.
// A nil upstream means demo mode.
func WithUpstream(r Responder) ChainOption {
	return func(c *Chain) {
		c.upstream = r
	}
}

// WithDemo replaces the demo table
func WithDemo(d *Demo) ChainOption {
	return func(c *Chain) {
		if d != nil {
			c.demo = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChain creates a chain over kb
func NewChain(kb KnowledgeBase, opts ...ChainOption) *Chain {
	c := &Chain{
		kb:     kb,
		demo:   NewDemo(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DemoMode reports whether no upstream model is configured
func (c *Chain) DemoMode() bool {
	return c.upstream == nil
}

// Reply answers message and records the exchange. Errors come only from
// the knowledge base; upstream failures fall back to the demo table.
func (c *Chain) Reply(ctx context.Context, message string) (*models.ChatReply, error) {
	answer, err := c.answer(ctx, message)
	if err != nil {
		return nil, err
	}

	if err := c.kb.AddConversation(ctx, message, answer.Text); err != nil {
		return nil, fmt.Errorf("failed to record conversation: %w", err)
	}

	learned, err := c.kb.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count learned pairs: %w", err)
	}

	return &models.ChatReply{
		Status:  models.StatusSuccess,
		Message: answer.Text,
		Source:  answer.Source,
		Learned: learned,
	}, nil
}

func (c *Chain) answer(ctx context.Context, message string) (Answer, error) {
	qa, ok, err := c.kb.LearnedResponse(ctx, message)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to look up learned answer: %w", err)
	}
	if ok && qa.Count > 0 {
		return Answer{Text: qa.Response, Source: models.SourceLearned}, nil
	}

	if c.upstream != nil {
		a, err := c.upstream.Respond(ctx, message)
		if err == nil {
			return a, nil
		}
		c.logger.Warn("upstream failed, using demo answer", zap.Error(err))
	}

	return c.demo.Respond(ctx, message)
}
