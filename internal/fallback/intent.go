package fallback

import "strings"

// Intent is the topic a question is classified into.
type Intent string

const (
	IntentServices Intent = "services"
	IntentAbout    Intent = "about"
	IntentContact  Intent = "contact"
	IntentLocation Intent = "location"
	IntentSpecific Intent = "specific"
	IntentGeneral  Intent = "general"
)

// AllIntents returns every intent Classify can produce.
func AllIntents() []Intent {
	return []Intent{
		IntentServices,
		IntentAbout,
		IntentContact,
		IntentLocation,
		IntentSpecific,
		IntentGeneral,
	}
}

type intentRule struct {
	intent   Intent
	keywords []string
}

// intentRules are evaluated in order; the first rule with a keyword contained
// in the question wins. Matching is substring containment, not tokenized.
// The bare verb "do" matches almost any question, so it is checked after the
// contact and location rules ("how do I contact you?" is a contact question).
var intentRules = []intentRule{
	{IntentServices, []string{"service", "offer", "provide", "solution", "product"}},
	{IntentAbout, []string{"about", "who", "what is", "overview", "company", "business"}},
	{IntentContact, []string{"contact", "email", "phone", "reach", "call"}},
	{IntentLocation, []string{"where", "location", "located", "address", "office"}},
	{IntentServices, []string{"do"}},
	{IntentSpecific, []string{"ai", "erp", "zoho", "hubspot", "web", "mobile", "digital"}},
}

// Classify maps a question to an intent, defaulting to IntentGeneral.
func Classify(question string) Intent {
	q := strings.ToLower(question)
	for _, rule := range intentRules {
		if containsAny(q, rule.keywords) {
			return rule.intent
		}
	}
	return IntentGeneral
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
