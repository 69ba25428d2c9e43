package chatbot

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/sitebot/internal/scrape"
	"github.com/sells-group/sitebot/pkg/anthropic"
)

// MockLLM implements anthropic.Client for testing.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:      "msg_1",
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}
}

// stubScraper returns fixed HTML or an error.
type stubScraper struct {
	html  string
	err   error
	calls int
}

func (s *stubScraper) Name() string           { return "stub" }
func (s *stubScraper) Supports(_ string) bool { return true }
func (s *stubScraper) Scrape(_ context.Context, url string) (*scrape.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := &scrape.Result{Strategy: "stub"}
	res.Page.URL = url
	res.Page.FinalURL = url
	res.Page.StatusCode = 200
	res.Page.HTML = []byte(s.html)
	return res, nil
}
