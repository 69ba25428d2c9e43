package chatbot

import (
	"sync"
	"time"
)

// Session is a ready chatbot: a company and the context blob its answers
// are drawn from.
type Session struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	WebsiteURL  string    `json:"website_url"`
	Context     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registry holds live sessions keyed by company ID. Rebuilding a company's
// chatbot replaces its session; other companies are unaffected.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
	latest   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Put stores a copy of s, replacing any session for the same company.
func (r *Registry) Put(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.CompanyID] = s
	r.latest = s.CompanyID
}

// Get returns a copy of the session for companyID.
func (r *Registry) Get(companyID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[companyID]
	return s, ok
}

// Latest returns the most recently registered session.
func (r *Registry) Latest() (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[r.latest]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
