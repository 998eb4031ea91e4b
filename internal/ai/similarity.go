package ai

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Oracle computes cosine similarity between two strings using the embedding
// model. Embeddings are cached per unique string for the lifetime of the
// Oracle, which amortizes the pairwise comparisons made by the category
// filter and the document/certification checks. The cache is a performance
// optimization only; results are the same without it.
type Oracle struct {
	embedder Embedder

	mu    sync.RWMutex
	cache map[string][]float32
}

func NewOracle(embedder Embedder) *Oracle {
	return &Oracle{
		embedder: embedder,
		cache:    make(map[string][]float32),
	}
}

// Similarity returns the cosine similarity of the two texts in [-1, 1].
func (o *Oracle) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := o.embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := o.embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return cosineSimilarity(va, vb), nil
}

func (o *Oracle) embed(ctx context.Context, text string) ([]float32, error) {
	o.mu.RLock()
	vec, ok := o.cache[text]
	o.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := o.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding %q failed: %w", truncateForLog(text), err)
	}

	o.mu.Lock()
	o.cache[text] = vec
	o.mu.Unlock()
	return vec, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func truncateForLog(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
