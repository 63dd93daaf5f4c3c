package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
		delta    float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"similar", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"shared prefix", Vector{1, 0}, Vector{1, 0, 5}, 1.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f (±%f)", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	a, err := e.Embed(ctx, "reliable agent planning")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "reliable agent planning")

	if len(a) != DefaultHashDims {
		t.Fatalf("expected %d dims, got %d", DefaultHashDims, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestHashEmbedder_Normalized(t *testing.T) {
	e := NewHashEmbedder(64)
	vec, _ := e.Embed(context.Background(), "some text with several distinct tokens")

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1.0) > 0.001 {
		t.Errorf("expected unit norm, got %f", math.Sqrt(norm))
	}
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	e := NewHashEmbedder(16)
	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("expected zero vector for empty text")
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, World! v2.0")
	want := []string{"hello", "world", "v2", "0"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
