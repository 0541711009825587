package aisummary

import (
	"context"
	"strings"
)

// extractiveSummarizer is the default Summarizer: it has no external LLM
// to call, so it falls back to the first sentence of the abstract. It
// exists so the cache, stats, and authorization gate have a concrete
// collaborator to exercise without depending on an external service.
type extractiveSummarizer struct{}

// NewExtractiveSummarizer returns a Summarizer that truncates the
// abstract to its first sentence.
func NewExtractiveSummarizer() Summarizer {
	return extractiveSummarizer{}
}

func (extractiveSummarizer) Summarize(_ context.Context, _ string, abstract string) (string, error) {
	abstract = strings.TrimSpace(abstract)
	if abstract == "" {
		return "", nil
	}
	if idx := strings.IndexAny(abstract, ".!?"); idx >= 0 {
		return abstract[:idx+1], nil
	}
	return abstract, nil
}
