// Package domain holds contracts and errors shared between layers.
package domain

import "errors"

var (
	// ErrEmptyQuestion signals a chat request without a question.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	// Fatal for the request: there is no fallback embedding.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrShardUnavailable signals a single shard query failure.
	// Absorbed at the gather step, never surfaced to callers.
	ErrShardUnavailable = errors.New("shard unavailable")
	// ErrNoShards signals that discovery and fallback both produced nothing.
	ErrNoShards = errors.New("no searchable shards")
)
