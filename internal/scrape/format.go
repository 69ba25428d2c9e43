package scrape

import (
	"fmt"
	"strings"

	"github.com/sells-group/sitebot/internal/model"
)

const bullet = "•"

// FormatLimits caps how much of a page ends up in a context blob.
type FormatLimits struct {
	MaxHeadings   int
	MaxServices   int
	MaxParagraphs int
	MaxSections   int
	MaxContacts   int
	ItemChars     int
	SectionChars  int
}

// DefaultFormatLimits returns the limits used when none are configured.
func DefaultFormatLimits() FormatLimits {
	return FormatLimits{
		MaxHeadings:   20,
		MaxServices:   30,
		MaxParagraphs: 40,
		MaxSections:   10,
		MaxContacts:   3,
		ItemChars:     300,
		SectionChars:  500,
	}
}

// FormatContext renders a page into the plain-text context blob that is sent
// to the model and parsed again by the fallback responder. Empty sections
// are omitted.
func FormatContext(page *model.PageData, companyName string, limits FormatLimits) string {
	if page == nil {
		page = &model.PageData{}
	}
	item := func(s string) string { return truncateRunes(collapse(s), limits.ItemChars) }

	title := item(page.Title)
	if title == "" {
		title = item(companyName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COMPANY: %s\n", title)
	if d := item(page.Description); d != "" {
		fmt.Fprintf(&b, "DESCRIPTION: %s\n", d)
	}

	writeList := func(header string, items []string, limit int) {
		items = nonEmpty(items, item, limit)
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s\n", header)
		for _, it := range items {
			fmt.Fprintf(&b, "%s %s\n", bullet, it)
		}
	}
	writeList("KEY TOPICS:", page.Headings, limits.MaxHeadings)
	writeList("SERVICES & FEATURES:", page.Lists, limits.MaxServices)

	emails := nonEmpty(page.Emails, item, limits.MaxContacts)
	phones := nonEmpty(page.Phones, item, limits.MaxContacts)
	if len(emails) > 0 || len(phones) > 0 {
		b.WriteString("\nCONTACT INFORMATION:\n")
		for _, e := range emails {
			fmt.Fprintf(&b, "Email: %s\n", e)
		}
		for _, p := range phones {
			fmt.Fprintf(&b, "Phone: %s\n", p)
		}
	}

	if paras := nonEmpty(page.Paragraphs, item, limits.MaxParagraphs); len(paras) > 0 {
		b.WriteString("\nDETAILED CONTENT:\n")
		for _, p := range paras {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}

	var sections []string
	for _, s := range page.Sections {
		if limits.MaxSections > 0 && len(sections) == limits.MaxSections {
			break
		}
		text := truncateRunes(collapse(s.Text), limits.SectionChars)
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("[%s]: %s", s.Key, text))
	}
	if len(sections) > 0 {
		b.WriteString("\nADDITIONAL INFORMATION:\n")
		for _, s := range sections {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func nonEmpty(items []string, clean func(string) string, limit int) []string {
	var out []string
	for _, it := range items {
		if limit > 0 && len(out) == limit {
			break
		}
		if c := clean(it); c != "" {
			out = append(out, c)
		}
	}
	return out
}
