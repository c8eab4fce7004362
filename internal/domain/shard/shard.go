// Package shard describes one searchable partition of the corpus.
package shard

import "fmt"

// Descriptor identifies one vector store collection holding a slice of the
// corpus. Descriptors are observed via directory discovery and are never
// mutated, only replaced wholesale on refresh.
type Descriptor struct {
	name     string
	metadata map[string]string
}

// New creates a shard descriptor.
func New(name string, metadata map[string]string) Descriptor {
	return Descriptor{name: name, metadata: metadata}
}

// Name returns the unique shard name.
func (d Descriptor) Name() string { return d.name }

// Metadata returns the opaque metadata observed at discovery. May be nil.
func (d Descriptor) Metadata() map[string]string { return d.metadata }

// Synthesize generates count deterministic descriptors following the
// "<prefix><index>" naming template, indices starting at 1. Used as the
// availability fallback when discovery fails: shards that no longer exist
// simply return zero hits.
func Synthesize(prefix string, count int) []Descriptor {
	out := make([]Descriptor, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, Descriptor{name: fmt.Sprintf("%s%d", prefix, i)})
	}
	return out
}
