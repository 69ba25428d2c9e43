// Package chatbot builds company chatbots from websites and answers
// visitor questions with a hosted model, falling back to keyword
// templates when the model is unavailable.
package chatbot

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitebot/internal/cache"
	"github.com/sells-group/sitebot/internal/fallback"
	"github.com/sells-group/sitebot/internal/model"
	"github.com/sells-group/sitebot/internal/resilience"
	"github.com/sells-group/sitebot/pkg/anthropic"
)

// ResponderConfig holds model call settings.
type ResponderConfig struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	Timeout     time.Duration
}

// Responder answers a question from a context blob: cached answers first,
// then the model, then the fallback engine.
type Responder struct {
	llm     anthropic.Client
	cache   cache.Cache
	breaker *resilience.CircuitBreaker
	cfg     ResponderConfig
}

// NewResponder creates a Responder. A nil llm routes every question to the
// fallback engine; a nil cache uses an in-memory LRU; a nil breaker uses
// default thresholds.
func NewResponder(llm anthropic.Client, c cache.Cache, breaker *resilience.CircuitBreaker, cfg ResponderConfig) *Responder {
	if c == nil {
		c = cache.NewMemoryCache(cache.DefaultSize, 0)
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "anthropic"})
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Responder{llm: llm, cache: c, breaker: breaker, cfg: cfg}
}

// HasModel reports whether a model client is configured.
func (r *Responder) HasModel() bool { return r.llm != nil }

// Respond answers question for company using contextBlob.
func (r *Responder) Respond(ctx context.Context, question, contextBlob, company string) (*model.Answer, error) {
	start := time.Now()
	key := cache.NewKey(company, question)

	if text, ok := r.lookup(ctx, key); ok {
		return &model.Answer{
			Text:           text,
			Source:         model.AnswerSourceCache,
			Cached:         true,
			ResponseTimeMS: elapsedMS(start),
		}, nil
	}

	if r.llm == nil {
		return r.fallback(ctx, key, question, contextBlob, company, start), nil
	}

	text, err := resilience.ExecuteVal(ctx, r.breaker, func(ctx context.Context) (string, error) {
		return r.generate(ctx, question, contextBlob, company)
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), anthropic.IsRateLimited(err):
		zap.L().Warn("chatbot: model unavailable, using fallback",
			zap.String("company", company),
			zap.Error(err),
		)
		return r.fallback(ctx, key, question, contextBlob, company, start), nil
	case err != nil:
		return nil, eris.Wrap(err, "ai: generate response")
	case text == "":
		zap.L().Warn("chatbot: empty model response, using fallback", zap.String("company", company))
		return r.fallback(ctx, key, question, contextBlob, company, start), nil
	}

	r.store(ctx, key, text)
	return &model.Answer{
		Text:           text,
		Source:         model.AnswerSourceModel,
		ResponseTimeMS: elapsedMS(start),
	}, nil
}

func (r *Responder) generate(ctx context.Context, question, contextBlob, company string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	temp := r.cfg.Temperature
	resp, err := r.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.cfg.Model,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: anthropic.BuildPrompt(question, contextBlob, company)},
		},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogUsage(r.cfg.Model, company)
	return resp.Text(), nil
}

func (r *Responder) fallback(ctx context.Context, key cache.Key, question, contextBlob, company string, start time.Time) *model.Answer {
	text := fallback.Answer(question, contextBlob, company)
	r.store(ctx, key, text)
	return &model.Answer{
		Text:           text,
		Source:         model.AnswerSourceFallback,
		Fallback:       true,
		ResponseTimeMS: elapsedMS(start),
	}
}

func (r *Responder) lookup(ctx context.Context, key cache.Key) (string, bool) {
	text, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("chatbot: cache get failed", zap.String("company", key.Company), zap.Error(err))
		return "", false
	}
	return text, ok
}

func (r *Responder) store(ctx context.Context, key cache.Key, text string) {
	if err := r.cache.Set(ctx, key, text); err != nil {
		zap.L().Warn("chatbot: cache set failed", zap.String("company", key.Company), zap.Error(err))
	}
}

// ModelCheck is the outcome of a model connectivity check.
type ModelCheck struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CheckModel sends a tiny prompt to the model to verify credentials and
// connectivity.
func (r *Responder) CheckModel(ctx context.Context) ModelCheck {
	if r.llm == nil {
		return ModelCheck{Error: "no model API key configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resp, err := r.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.cfg.Model,
		MaxTokens: 20,
		Messages:  []anthropic.Message{{Role: "user", Content: "Say 'AI is working'"}},
	})
	if err != nil {
		return ModelCheck{Error: err.Error()}
	}
	return ModelCheck{Success: true, Response: resp.Text()}
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
