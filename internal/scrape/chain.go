package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Chain tries fetch strategies in order, returning the first success.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain that tries scrapers in the given order.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// DefaultChain builds one HTTPScraper per default header profile. All
// strategies share one limiter allowing ratePerSec requests per second
// (0 disables limiting).
func DefaultChain(opts HTTPOptions, ratePerSec float64) *Chain {
	if opts.Limiter == nil && ratePerSec > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	var scrapers []Scraper
	for _, p := range DefaultProfiles() {
		scrapers = append(scrapers, NewHTTPScraper(p, opts))
	}
	return NewChain(scrapers...)
}

// Name identifies the chain in logs.
func (c *Chain) Name() string { return "chain" }

// Supports reports whether any strategy in the chain can fetch url.
func (c *Chain) Supports(url string) bool {
	for _, s := range c.scrapers {
		if s.Supports(url) {
			return true
		}
	}
	return false
}

// Scrape tries each scraper in order for a single URL.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil {
			zap.L().Debug("scrape: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr != nil {
		zap.L().Warn("scrape: all strategies failed",
			zap.String("url", targetURL),
			zap.Error(lastErr),
		)
		if errors.Is(lastErr, ErrBlocked) {
			return nil, eris.Wrap(lastErr,
				"website blocked access; try a different URL, the site may have anti-scraping protection")
		}
		return nil, eris.Wrap(lastErr, "scrape: all strategies failed")
	}
	return nil, eris.Errorf("scrape: no suitable strategy for url: %s", targetURL)
}

// NormalizeURL trims the URL and adds an https scheme when none is present.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}
