package fallback

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	maxServiceBullets     = 5
	unfilteredServices    = 6
	maxSpecificServices   = 4
	maxAboutServices      = 4
	aboutParagraphScan    = 3
	locationParagraphScan = 5
	minTokenLen           = 3
)

var (
	aboutKeywords    = []string{"company", "business", "founded", "mission", "vision"}
	locationKeywords = []string{"singapore", "india", "usa", "uk", "location", "based", "office"}
)

// serviceFilter narrows services when the question mentions a sub-topic.
type serviceFilter struct {
	question []string
	service  []string
}

var serviceFilters = []serviceFilter{
	{question: []string{"ai"}, service: []string{"ai", "artificial"}},
	{question: []string{"web", "website"}, service: []string{"web", "website"}},
	{question: []string{"mobile", "app"}, service: []string{"mobile", "app"}},
}

// Synthesize builds an answer for the intent from the parsed context.
// questionLower must already be lowercased. The result is never empty.
func Synthesize(intent Intent, pc ParsedContext, company, questionLower string) string {
	switch intent {
	case IntentServices:
		return servicesAnswer(pc, company, questionLower)
	case IntentAbout:
		return aboutAnswer(pc, company)
	case IntentContact:
		return contactAnswer(pc, company)
	case IntentLocation:
		return locationAnswer(pc, company)
	case IntentSpecific:
		return specificAnswer(pc, company, questionLower)
	default:
		return generalAnswer(pc, company, questionLower)
	}
}

func servicesAnswer(pc ParsedContext, company, q string) string {
	if len(pc.Services) == 0 {
		if pc.Description != "" {
			return fmt.Sprintf("%s is %s", company, pc.Description)
		}
		return fmt.Sprintf("%s offers a range of services. Please visit their website for complete details.", company)
	}

	relevant := firstN(pc.Services, unfilteredServices)
	for _, f := range serviceFilters {
		if containsAny(q, f.question) {
			relevant = filterContaining(pc.Services, f.service)
			break
		}
	}

	if len(relevant) > 0 {
		return bulleted(fmt.Sprintf("%s offers several key services:", company), firstN(relevant, maxServiceBullets))
	}
	return bulleted(fmt.Sprintf("%s offers the following services:", company), firstN(pc.Services, unfilteredServices))
}

func aboutAnswer(pc ParsedContext, company string) string {
	var parts []string
	if pc.Description != "" {
		parts = append(parts, pc.Description)
	}

	for _, p := range firstN(pc.Paragraphs, aboutParagraphScan) {
		if containsAny(strings.ToLower(p), aboutKeywords) {
			parts = append(parts, p)
			break
		}
	}

	if len(parts) == 0 && len(pc.Services) > 0 {
		parts = append(parts, fmt.Sprintf("%s specializes in: %s",
			company, strings.Join(firstN(pc.Services, maxAboutServices), ", ")))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s is a company with an online presence. Please visit their website to learn more about them.", company)
	}
	return strings.Join(parts, "\n\n")
}

func contactAnswer(pc ParsedContext, company string) string {
	if len(pc.Emails) == 0 && len(pc.Phones) == 0 {
		return fmt.Sprintf("For contact information, please visit %s's website.", company)
	}

	lines := []string{fmt.Sprintf("You can contact %s:", company)}
	if len(pc.Emails) > 0 {
		lines = append(lines, fmt.Sprintf("%s Email: %s", Bullet, pc.Emails[0]))
	}
	if len(pc.Phones) > 0 {
		lines = append(lines, fmt.Sprintf("%s Phone: %s", Bullet, pc.Phones[0]))
	}
	return strings.Join(lines, "\n")
}

func locationAnswer(pc ParsedContext, company string) string {
	candidates := make([]string, 0, 1+locationParagraphScan)
	if pc.Description != "" {
		candidates = append(candidates, pc.Description)
	}
	candidates = append(candidates, firstN(pc.Paragraphs, locationParagraphScan)...)

	for _, c := range candidates {
		if containsAny(strings.ToLower(c), locationKeywords) {
			return c
		}
	}

	if strings.Contains(strings.ToLower(pc.Title), "singapore") ||
		strings.Contains(strings.ToLower(pc.Description), "singapore") {
		return fmt.Sprintf("%s is based in Singapore. Please visit their website for the full office address.", company)
	}
	return fmt.Sprintf("For location details, please visit %s's website.", company)
}

func specificAnswer(pc ParsedContext, company, q string) string {
	tokens := questionTokens(q)

	if matches := filterContaining(pc.Services, tokens); len(matches) > 0 {
		return bulleted(fmt.Sprintf("Regarding your question about %s:", company), firstN(matches, maxSpecificServices))
	}

	for _, p := range pc.Paragraphs {
		if containsAny(strings.ToLower(p), tokens) {
			return p
		}
	}

	return servicesAnswer(pc, company, q)
}

func generalAnswer(pc ParsedContext, company, q string) string {
	tokens := questionTokens(q)

	for _, p := range pc.Paragraphs {
		if containsAny(strings.ToLower(p), tokens) {
			return p
		}
	}

	if matches := filterContaining(pc.Services, tokens); len(matches) > 0 {
		return bulleted(fmt.Sprintf("Here is what %s offers related to your question:", company), firstN(matches, maxServiceBullets))
	}

	if pc.Description != "" {
		return pc.Description
	}
	return fmt.Sprintf("For more information about %s, please visit their website.", company)
}

// questionTokens splits a question into words longer than minTokenLen runes,
// with surrounding punctuation removed.
func questionTokens(q string) []string {
	var tokens []string
	for _, w := range strings.Fields(q) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(w)) > minTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// filterContaining returns the items whose lowercased text contains any of
// the keywords, preserving order.
func filterContaining(items, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	var out []string
	for _, item := range items {
		if containsAny(strings.ToLower(item), keywords) {
			out = append(out, item)
		}
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func bulleted(header string, items []string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, item := range items {
		b.WriteString("\n")
		b.WriteString(Bullet)
		b.WriteString(" ")
		b.WriteString(item)
	}
	return b.String()
}
