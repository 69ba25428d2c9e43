package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitebot/internal/cache"
	"github.com/sells-group/sitebot/internal/chatbot"
	"github.com/sells-group/sitebot/internal/config"
	"github.com/sells-group/sitebot/internal/db"
	"github.com/sells-group/sitebot/internal/resilience"
	"github.com/sells-group/sitebot/internal/scrape"
	"github.com/sells-group/sitebot/internal/store"
	anthropicpkg "github.com/sells-group/sitebot/pkg/anthropic"
)

// appEnv holds the initialized store, cache and chatbot service needed by
// the serve/ask/build commands.
type appEnv struct {
	Store   store.Store // may be nil
	Service *chatbot.Service
	redis   *cache.RedisCache
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "sitebot.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, db.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

func initCache(ctx context.Context, c *config.Config) (cache.Cache, *cache.RedisCache, error) {
	switch c.Cache.Driver {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			TTL:      c.Cache.TTL(),
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, rc, nil
	case "memory", "":
		return cache.NewMemoryCache(c.Cache.Size, c.Cache.TTL()), nil, nil
	default:
		return nil, nil, eris.Errorf("unsupported cache driver: %s", c.Cache.Driver)
	}
}

func formatLimits(c config.ContextConfig) scrape.FormatLimits {
	return scrape.FormatLimits{
		MaxHeadings:   c.MaxHeadings,
		MaxServices:   c.MaxServices,
		MaxParagraphs: c.MaxParagraphs,
		MaxSections:   c.MaxSections,
		MaxContacts:   c.MaxContacts,
		ItemChars:     c.ItemChars,
		SectionChars:  c.SectionChars,
	}
}

// initApp validates config for mode, then wires the store, cache, model
// client and chatbot service. A store that cannot be opened or migrated is
// logged and skipped; chatbots then live in memory only. Callers should
// defer env.Close().
func initApp(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}

	st, err := initStore(ctx, c)
	if err != nil {
		zap.L().Warn("store unavailable, chatbots will not be persisted", zap.Error(err))
	} else if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("store migration failed, chatbots will not be persisted", zap.Error(err))
		_ = st.Close()
	} else {
		env.Store = st
	}

	answers, rc, err := initCache(ctx, c)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init cache")
	}
	env.redis = rc

	var llm anthropicpkg.Client
	if c.Anthropic.Key != "" {
		llm = anthropicpkg.NewClient(c.Anthropic.Key)
	} else {
		zap.L().Info("SITEBOT_ANTHROPIC_KEY not set, answers come from the fallback engine")
	}

	breaker := resilience.NewCircuitBreaker(resilience.NewCircuitConfig(
		"anthropic",
		c.Circuit.FailureThreshold,
		time.Duration(c.Circuit.ResetTimeoutSecs)*time.Second,
	))
	responder := chatbot.NewResponder(llm, answers, breaker, chatbot.ResponderConfig{
		Model:       c.Anthropic.Model,
		MaxTokens:   c.Anthropic.MaxTokens,
		Temperature: c.Anthropic.Temperature,
		Timeout:     time.Duration(c.Anthropic.TimeoutSecs) * time.Second,
	})

	chain := scrape.DefaultChain(scrape.HTTPOptions{
		Timeout:      time.Duration(c.Scrape.TimeoutSecs) * time.Second,
		MaxAttempts:  c.Scrape.MaxAttempts,
		MaxBodyBytes: c.Scrape.MaxBodyBytes,
	}, c.Scrape.RatePerSec)

	env.Service = chatbot.NewService(chain, env.Store, responder, formatLimits(c.Context))
	return env, nil
}
