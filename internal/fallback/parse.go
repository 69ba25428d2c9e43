// Package fallback answers questions about a company from its context blob
// without a hosted model: the blob is parsed back into fields, the question
// is classified into an intent, and an answer is templated from the fields.
package fallback

import (
	"regexp"
	"strings"
)

// Bullet is the glyph that prefixes list items in a context blob.
const Bullet = "•"

// minParagraphLen is the length a detailed-content line must exceed.
const minParagraphLen = 30

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// ParsedContext is the structured view of a context blob.
type ParsedContext struct {
	Title       string
	Description string
	Headings    []string
	Services    []string
	Paragraphs  []string
	Emails      []string

	// Phones is never populated by Parse: contact lines are scanned for
	// emails only.
	Phones []string
}

type section int

const (
	sectionNone section = iota
	sectionHeadings
	sectionServices
	sectionParagraphs
	sectionContact
)

// Parse scans a context blob line by line. Header lines switch the current
// section; content lines are routed by section. Missing or malformed
// sections leave the corresponding fields empty.
func Parse(blob string) ParsedContext {
	var pc ParsedContext
	current := sectionNone

	for _, raw := range strings.Split(blob, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "COMPANY:"):
			pc.Title = strings.TrimSpace(strings.TrimPrefix(line, "COMPANY:"))
			continue
		case strings.HasPrefix(line, "DESCRIPTION:"):
			pc.Description = strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:"))
			continue
		case strings.Contains(line, "KEY TOPICS:"):
			current = sectionHeadings
			continue
		case strings.Contains(line, "SERVICES & FEATURES:"):
			current = sectionServices
			continue
		case strings.Contains(line, "DETAILED CONTENT:"):
			current = sectionParagraphs
			continue
		case strings.Contains(line, "CONTACT"):
			current = sectionContact
			continue
		}

		switch current {
		case sectionHeadings:
			if item, ok := bulletItem(line); ok {
				pc.Headings = append(pc.Headings, item)
			}
		case sectionServices:
			if item, ok := bulletItem(line); ok {
				pc.Services = append(pc.Services, item)
			}
		case sectionParagraphs:
			if len(line) > minParagraphLen {
				pc.Paragraphs = append(pc.Paragraphs, line)
			}
		case sectionContact:
			pc.Emails = append(pc.Emails, emailRe.FindAllString(line, -1)...)
		}
	}

	return pc
}

func bulletItem(line string) (string, bool) {
	if !strings.HasPrefix(line, Bullet) {
		return "", false
	}
	item := strings.TrimSpace(strings.TrimPrefix(line, Bullet))
	return item, item != ""
}
