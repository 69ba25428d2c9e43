// Package store persists companies, their scraped content and chat history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitebot/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for chatbots.
type Store interface {
	// Companies
	SaveCompany(ctx context.Context, name, websiteURL string) (*model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	LatestCompany(ctx context.Context) (*model.Company, error)

	// Scraped content
	ClearCompanyData(ctx context.Context, companyID string) error
	SaveScrapedData(ctx context.Context, companyID string, contentType model.ContentType, text string) error
	GetScrapedData(ctx context.Context, companyID string, contentType model.ContentType) (*model.ScrapedData, error)

	// Chat history
	SaveChatMessage(ctx context.Context, msg *model.ChatMessage) error
	ListChatHistory(ctx context.Context, companyID string, limit int) ([]model.ChatMessage, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// DefaultHistoryLimit applies when ListChatHistory is called with limit <= 0.
const DefaultHistoryLimit = 50

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
