package model

import "time"

// Company is a website whose content backs a chatbot.
type Company struct {
	ID         string    `json:"id"`
	Name       string    `json:"company_name"`
	WebsiteURL string    `json:"website_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ContentType labels a row of scraped data stored for a company.
type ContentType string

const (
	ContentTitle       ContentType = "title"
	ContentDescription ContentType = "meta_description"
	ContentFullText    ContentType = "full_text"
	ContentContactInfo ContentType = "contact_info"
	ContentServices    ContentType = "services"
	ContentContext     ContentType = "context"
)

// ScrapedData is one persisted piece of scraped content.
type ScrapedData struct {
	ID          string      `json:"id"`
	CompanyID   string      `json:"company_id"`
	ContentType ContentType `json:"content_type"`
	ContentText string      `json:"content_text"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ChatMessage is a question/answer pair recorded for a company.
type ChatMessage struct {
	ID             string       `json:"id"`
	CompanyID      string       `json:"company_id"`
	Question       string       `json:"user_question"`
	Response       string       `json:"bot_response"`
	ResponseTimeMS int64        `json:"response_time_ms"`
	Source         AnswerSource `json:"source"`
	CreatedAt      time.Time    `json:"created_at"`
}
