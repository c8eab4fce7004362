package chroma

import (
	"fmt"

	"github.com/campusrag/campusrag/internal/domain/search/hit"
)

type collectionDTO struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

type queryRequestDTO struct {
	QueryEmbeddings [][]float32       `json:"query_embeddings"`
	NResults        int               `json:"n_results"`
	Where           map[string]string `json:"where,omitempty"`
	Include         []string          `json:"include"`
}

// queryResponseDTO mirrors Chroma's columnar response: the outer slice is one
// entry per query embedding, the inner slice one entry per result.
type queryResponseDTO struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// toHits flattens the first query's columns into hits. Missing columns get
// defaults: distance 1.0, positional id.
func (r *queryResponseDTO) toHits(collection string) []hit.Hit {
	if len(r.IDs) == 0 && len(r.Documents) == 0 {
		return nil
	}

	var docs []string
	if len(r.Documents) > 0 {
		docs = r.Documents[0]
	}

	hits := make([]hit.Hit, 0, len(docs))
	for i, content := range docs {
		id := fmt.Sprintf("%d", i)
		if len(r.IDs) > 0 && i < len(r.IDs[0]) {
			id = r.IDs[0][i]
		}
		distance := 1.0
		if len(r.Distances) > 0 && i < len(r.Distances[0]) {
			distance = r.Distances[0][i]
		}
		var metadata map[string]string
		if len(r.Metadatas) > 0 && i < len(r.Metadatas[0]) {
			metadata = stringifyMetadata(r.Metadatas[0][i])
		}
		hits = append(hits, hit.New(id, content, metadata, distance, collection))
	}
	return hits
}

func stringifyMetadata(m map[string]any) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
