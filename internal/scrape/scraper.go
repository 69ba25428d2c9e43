// Package scrape fetches company websites, extracts their content into
// structured fields and formats those fields into a chatbot context blob.
package scrape

import (
	"context"

	"github.com/sells-group/sitebot/internal/model"
)

// Result holds a fetched page with the strategy that produced it.
type Result struct {
	Page     model.FetchedPage
	Strategy string // e.g. "browser", "minimal", "bot"
}

// Scraper fetches a single URL and returns its raw content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
