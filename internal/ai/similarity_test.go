package ai

import (
	"context"
	"fmt"
	"math"
	"testing"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func TestOracleSimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"civil works": {1, 0, 0},
		"road repair": {1, 0, 0},
		"catering":    {0, 1, 0},
	}}
	oracle := NewOracle(embedder)
	ctx := context.Background()

	sim, err := oracle.Similarity(ctx, "civil works", "road repair")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim-1.0) > 1e-9 {
		t.Fatalf("expected similarity 1.0, got %v", sim)
	}

	sim, err = oracle.Similarity(ctx, "civil works", "catering")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sim) > 1e-9 {
		t.Fatalf("expected similarity 0, got %v", sim)
	}
}

func TestOracleCachesEmbeddings(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	}}
	oracle := NewOracle(embedder)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := oracle.Similarity(ctx, "a", "b"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if embedder.calls != 2 {
		t.Fatalf("expected 2 embedding calls (one per unique string), got %d", embedder.calls)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"empty", nil, []float32{1}, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
