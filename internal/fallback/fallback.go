package fallback

import (
	"strings"

	"go.uber.org/zap"
)

// Answer runs the full fallback pipeline: parse the context blob, classify
// the question and synthesize an answer. It never fails and never returns an
// empty string.
func Answer(question, contextBlob, company string) string {
	pc := Parse(contextBlob)
	intent := Classify(question)

	zap.L().Debug("fallback: answering question",
		zap.String("company", company),
		zap.String("intent", string(intent)),
		zap.Int("services", len(pc.Services)),
		zap.Int("paragraphs", len(pc.Paragraphs)),
	)

	return Synthesize(intent, pc, company, strings.ToLower(question))
}
