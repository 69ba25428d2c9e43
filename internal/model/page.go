package model

// PageData is the structured bag of fields extracted from a fetched page.
type PageData struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"meta_description"`
	Headings    []string  `json:"headings"`
	Paragraphs  []string  `json:"paragraphs"`
	Lists       []string  `json:"lists"`
	Emails      []string  `json:"emails"`
	Phones      []string  `json:"phones"`
	Sections    []Section `json:"sections"`
	FullText    string    `json:"full_text"`
}

// Section is the text of a keyed page region (element id or class list).
type Section struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// HasContactInfo reports whether any email or phone was found.
func (p *PageData) HasContactInfo() bool {
	return len(p.Emails) > 0 || len(p.Phones) > 0
}

// ContactInfo groups the contact fields for persistence.
type ContactInfo struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

// Contact returns the page's contact fields.
func (p *PageData) Contact() ContactInfo {
	return ContactInfo{Emails: p.Emails, Phones: p.Phones}
}

// FetchedPage is the raw result of fetching a URL.
type FetchedPage struct {
	URL         string `json:"url"`
	FinalURL    string `json:"final_url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	HTML        []byte `json:"-"`
}
