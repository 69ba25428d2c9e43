package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitebot/internal/model"
	"github.com/sells-group/sitebot/internal/scrape"
	"github.com/sells-group/sitebot/internal/store"
)

var (
	// ErrSessionNotFound is returned when no chatbot exists for a company.
	ErrSessionNotFound = eris.New("chatbot: session not found")
	// ErrInvalidInput is returned for missing or blank request fields.
	ErrInvalidInput = eris.New("chatbot: invalid input")
)

// CreateResult summarises a newly built chatbot.
type CreateResult struct {
	Session        Session
	Title          string
	ServicesCount  int
	HasContactInfo bool
}

// Status reports whether a chatbot is ready.
type Status struct {
	Ready       bool   `json:"ready"`
	CompanyID   string `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	WebsiteURL  string `json:"website_url,omitempty"`
}

// Service builds chatbots and answers questions for them. The store is
// optional: when nil or failing, chatbots live only in memory.
type Service struct {
	scraper   scrape.Scraper
	store     store.Store
	responder *Responder
	registry  *Registry
	limits    scrape.FormatLimits
}

// NewService wires a Service.
func NewService(scraper scrape.Scraper, st store.Store, responder *Responder, limits scrape.FormatLimits) *Service {
	return &Service{
		scraper:   scraper,
		store:     st,
		responder: responder,
		registry:  NewRegistry(),
		limits:    limits,
	}
}

// Responder returns the service's responder.
func (s *Service) Responder() *Responder { return s.responder }

// Store returns the configured store, which may be nil.
func (s *Service) Store() store.Store { return s.store }

// Sessions returns the number of chatbots currently held in memory.
func (s *Service) Sessions() int { return s.registry.Len() }

// CreateChatbot scrapes websiteURL and registers a chatbot for the company.
func (s *Service) CreateChatbot(ctx context.Context, name, websiteURL string) (*CreateResult, error) {
	name = strings.TrimSpace(name)
	websiteURL = scrape.NormalizeURL(websiteURL)
	if name == "" || websiteURL == "" {
		return nil, eris.Wrap(ErrInvalidInput, "both company_name and website_url are required")
	}

	log := zap.L().With(zap.String("company", name), zap.String("url", websiteURL))
	log.Info("chatbot: scraping website")

	res, err := s.scraper.Scrape(ctx, websiteURL)
	if err != nil {
		return nil, eris.Wrapf(err, "chatbot: scrape %s", websiteURL)
	}
	page, err := scrape.Extract(res.Page.HTML)
	if err != nil {
		return nil, eris.Wrapf(err, "chatbot: extract %s", websiteURL)
	}
	page.URL = res.Page.FinalURL

	blob := scrape.FormatContext(page, name, s.limits)
	companyID := s.persist(ctx, name, websiteURL, page, blob)

	sess := Session{
		CompanyID:   companyID,
		CompanyName: name,
		WebsiteURL:  websiteURL,
		Context:     blob,
		CreatedAt:   time.Now().UTC(),
	}
	s.registry.Put(sess)

	log.Info("chatbot: created",
		zap.String("company_id", companyID),
		zap.String("strategy", res.Strategy),
		zap.Int("context_chars", len(blob)),
	)

	return &CreateResult{
		Session:        sess,
		Title:          page.Title,
		ServicesCount:  len(page.Lists),
		HasContactInfo: page.HasContactInfo(),
	}, nil
}

// persist saves the company and its scraped content. Failures are logged
// and an in-memory ID is returned so the chatbot still works.
func (s *Service) persist(ctx context.Context, name, websiteURL string, page *model.PageData, blob string) string {
	if s.store == nil {
		return uuid.New().String()
	}

	company, err := s.store.SaveCompany(ctx, name, websiteURL)
	if err != nil {
		zap.L().Warn("chatbot: store unavailable, continuing in memory", zap.Error(err))
		return uuid.New().String()
	}

	if err := s.store.ClearCompanyData(ctx, company.ID); err != nil {
		zap.L().Warn("chatbot: clear company data failed", zap.String("company_id", company.ID), zap.Error(err))
	}

	contact, _ := json.Marshal(page.Contact())
	rows := []struct {
		ct   model.ContentType
		text string
	}{
		{model.ContentTitle, page.Title},
		{model.ContentDescription, page.Description},
		{model.ContentFullText, page.FullText},
		{model.ContentContactInfo, string(contact)},
		{model.ContentServices, strings.Join(page.Lists, ", ")},
		{model.ContentContext, blob},
	}
	for _, row := range rows {
		if err := s.store.SaveScrapedData(ctx, company.ID, row.ct, row.text); err != nil {
			zap.L().Warn("chatbot: save scraped data failed",
				zap.String("company_id", company.ID),
				zap.String("content_type", string(row.ct)),
				zap.Error(err),
			)
		}
	}
	return company.ID
}

// Ask answers a question for an existing chatbot and records the exchange.
func (s *Service) Ask(ctx context.Context, companyID, question string) (*model.Answer, error) {
	companyID = strings.TrimSpace(companyID)
	question = strings.TrimSpace(question)
	if companyID == "" || question == "" {
		return nil, eris.Wrap(ErrInvalidInput, "both company_id and question are required")
	}

	sess, err := s.session(ctx, companyID)
	if err != nil {
		return nil, err
	}

	answer, err := s.responder.Respond(ctx, question, sess.Context, sess.CompanyName)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		msg := &model.ChatMessage{
			CompanyID:      sess.CompanyID,
			Question:       question,
			Response:       answer.Text,
			ResponseTimeMS: answer.ResponseTimeMS,
			Source:         answer.Source,
		}
		if err := s.store.SaveChatMessage(ctx, msg); err != nil {
			zap.L().Warn("chatbot: save chat history failed", zap.String("company_id", companyID), zap.Error(err))
		}
	}
	return answer, nil
}

// session resolves a live session, restoring it from the store's saved
// context when the process has restarted since the chatbot was built.
func (s *Service) session(ctx context.Context, companyID string) (Session, error) {
	if sess, ok := s.registry.Get(companyID); ok {
		return sess, nil
	}
	if s.store == nil {
		return Session{}, eris.Wrapf(ErrSessionNotFound, "company %s", companyID)
	}

	company, err := s.store.GetCompany(ctx, companyID)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, eris.Wrapf(ErrSessionNotFound, "company %s", companyID)
	}
	if err != nil {
		return Session{}, eris.Wrap(err, "chatbot: load company")
	}
	data, err := s.store.GetScrapedData(ctx, companyID, model.ContentContext)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, eris.Wrapf(ErrSessionNotFound, "company %s has no saved context", companyID)
	}
	if err != nil {
		return Session{}, eris.Wrap(err, "chatbot: load context")
	}

	sess := Session{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		WebsiteURL:  company.WebsiteURL,
		Context:     data.ContentText,
		CreatedAt:   data.CreatedAt,
	}
	s.registry.Put(sess)
	zap.L().Info("chatbot: session restored from store", zap.String("company_id", companyID))
	return sess, nil
}

// Status reports readiness for companyID, or for the most recent chatbot
// when companyID is empty.
func (s *Service) Status(ctx context.Context, companyID string) Status {
	companyID = strings.TrimSpace(companyID)
	if companyID != "" {
		sess, err := s.session(ctx, companyID)
		if err != nil {
			return Status{CompanyID: companyID}
		}
		return statusOf(sess)
	}

	if sess, ok := s.registry.Latest(); ok {
		return statusOf(sess)
	}
	if s.store == nil {
		return Status{}
	}
	company, err := s.store.LatestCompany(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("chatbot: latest company lookup failed", zap.Error(err))
		}
		return Status{}
	}
	sess, err := s.session(ctx, company.ID)
	if err != nil {
		return Status{CompanyID: company.ID, CompanyName: company.Name, WebsiteURL: company.WebsiteURL}
	}
	return statusOf(sess)
}

func statusOf(sess Session) Status {
	return Status{
		Ready:       true,
		CompanyID:   sess.CompanyID,
		CompanyName: sess.CompanyName,
		WebsiteURL:  sess.WebsiteURL,
	}
}

// History returns the most recent exchanges for a company, newest first.
func (s *Service) History(ctx context.Context, companyID string, limit int) ([]model.ChatMessage, error) {
	if s.store == nil {
		return nil, eris.New("chatbot: chat history requires a store")
	}
	msgs, err := s.store.ListChatHistory(ctx, companyID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "chatbot: list history")
	}
	return msgs, nil
}
