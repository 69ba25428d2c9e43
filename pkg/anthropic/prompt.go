package anthropic

import "fmt"

const promptTemplate = `You are a helpful AI assistant for %s. Answer based ONLY on the provided information. Be concise (2-4 sentences).

Company Information:
%s

User Question: %s

Answer:`

// BuildPrompt renders the single-turn prompt sent for a visitor question.
func BuildPrompt(question, companyContext, company string) string {
	return fmt.Sprintf(promptTemplate, company, companyContext, question)
}
