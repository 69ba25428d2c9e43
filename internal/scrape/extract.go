package scrape

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/sells-group/sitebot/internal/model"
)

const (
	// DefaultTitle is used when a page has neither a title nor an h1.
	DefaultTitle = "Company Website"

	minHeadingLen   = 2
	minParagraphLen = 15
	minListItemLen  = 5
	maxEmails       = 5
	maxPhones       = 5
	maxSectionKey   = 100
	minSectionLen   = 30
	maxSectionLen   = 3000
	maxFullText     = 20000
	minPhoneDigits  = 8
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\(?\d[\d\s().-]{6,}\d`)
)

// Extract parses HTML and pulls out the fields a company chatbot needs.
// Script, style and noscript content is ignored.
func Extract(raw []byte) (*model.PageData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}
	doc.Find("script, style, noscript").Remove()

	page := &model.PageData{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Headings:    extractHeadings(doc),
		Paragraphs:  collectText(doc.Find("p"), minParagraphLen),
		Lists:       collectText(doc.Find("ul > li, ol > li"), minListItemLen),
		Emails:      extractEmails(raw),
		Sections:    extractSections(doc),
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	page.FullText = truncateRunes(nodeText(body), maxFullText)
	page.Phones = extractPhones(doc, page.FullText)

	return page, nil
}

func extractTitle(doc *goquery.Document) string {
	if t := nodeText(doc.Find("title").First()); t != "" {
		return t
	}
	if h := nodeText(doc.Find("h1").First()); h != "" {
		return h
	}
	return DefaultTitle
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if d := collapse(content); d != "" {
				return d
			}
		}
	}
	return ""
}

func extractHeadings(doc *goquery.Document) []string {
	var out []string
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		out = append(out, collectText(doc.Find(tag), minHeadingLen)...)
	}
	return out
}

func collectText(sel *goquery.Selection, minLen int) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := nodeText(s); len(t) > minLen {
			out = append(out, t)
		}
	})
	return out
}

func extractEmails(raw []byte) []string {
	return dedupe(emailRe.FindAllString(string(raw), -1), maxEmails)
}

func extractPhones(doc *goquery.Document, text string) []string {
	var found []string
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if num := strings.TrimSpace(strings.TrimPrefix(href, "tel:")); num != "" {
			found = append(found, num)
		}
	})
	for _, m := range phoneRe.FindAllString(text, -1) {
		if countDigits(m) >= minPhoneDigits {
			found = append(found, strings.TrimSpace(m))
		}
	}
	return dedupe(found, maxPhones)
}

func extractSections(doc *goquery.Document) []model.Section {
	var out []model.Section
	seen := make(map[string]bool)
	doc.Find("section, article, div").Each(func(_ int, s *goquery.Selection) {
		key, _ := s.Attr("id")
		if key == "" {
			class, _ := s.Attr("class")
			key = strings.Join(strings.Fields(class), " ")
		}
		if key == "" || len(key) > maxSectionKey || seen[key] {
			return
		}
		text := nodeText(s)
		if len(text) <= minSectionLen || len(text) >= maxSectionLen {
			return
		}
		seen[key] = true
		out = append(out, model.Section{Key: key, Text: text})
	})
	return out
}

// nodeText returns the whitespace-collapsed text of a selection. Text nodes
// are joined with spaces so adjacent block elements do not run together,
// which goquery's Text does not guarantee.
func nodeText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return collapse(sb.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupe(items []string, limit int) []string {
	var out []string
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
