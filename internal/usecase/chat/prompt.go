package chat

import (
	"fmt"
	"strings"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
)

// maxContextDocs bounds how many retrieved passages feed the prompt.
const maxContextDocs = 5

// Content truncation tiers by relevance. Higher-relevance passages keep more
// text; the budget keeps prompt size and generation latency bounded.
const (
	highRelevanceChars   = 500
	mediumRelevanceChars = 350
	lowRelevanceChars    = 250
)

const promptTemplate = `Answer this %s question using the provided context:

Context: %s
Question: %s

Instructions:
- Answer the specific question using the context above
- Provide detailed, structured information
- Include specific details like numbers, dates, requirements
- Be comprehensive and helpful

Answer:`

// buildPrompt assembles the LLM prompt from the top retrieved passages.
func buildPrompt(institution, question string, docs []hit.Hit) string {
	parts := make([]string, 0, maxContextDocs)
	for i, d := range docs {
		if i >= maxContextDocs {
			break
		}
		parts = append(parts, fmt.Sprintf("[Source %d] %s\n%s\n", i+1, docTitle(d, i+1), truncateContent(d)))
	}
	return fmt.Sprintf(promptTemplate, institution, strings.Join(parts, "\n"), question)
}

// docTitle extracts a human title from metadata, falling back through
// source and file name to a positional label.
func docTitle(d hit.Hit, rank int) string {
	for _, key := range []string{"title", "source", "file_name"} {
		if v := d.Meta(key); v != "" && v != "Unknown" {
			return v
		}
	}
	return fmt.Sprintf("Document %d", rank)
}

func docURL(d hit.Hit) string {
	if v := d.Meta("url"); v != "" {
		return v
	}
	return d.Meta("source_url")
}

func truncateContent(d hit.Hit) string {
	limit := lowRelevanceChars
	switch {
	case d.RelevanceScore() > 0.5:
		limit = highRelevanceChars
	case d.RelevanceScore() > 0.3:
		limit = mediumRelevanceChars
	}

	content := d.Content()
	if len(content) > limit {
		return content[:limit] + "..."
	}
	return content
}

func preview(content string) string {
	if len(content) > 200 {
		return content[:200] + "..."
	}
	return content
}
