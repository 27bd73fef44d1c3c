package ai

import (
	"math"
	"testing"
)

func TestCosineSimilaritySelf(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 0.2},
		{5, 5, 5, 5},
	}
	for _, v := range vecs {
		got := CosineSimilarity(v, v)
		if math.Abs(got-1) > 1e-9 {
			t.Errorf("CosineSimilarity(v, v) = %v, want 1", got)
		}
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float32{0.1, 0.9, -0.4}
	b := []float32{-0.2, 0.5, 0.8}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Errorf("similarity is not symmetric")
	}
}

func TestCosineSimilarityEmpty(t *testing.T) {
	a := []float32{1, 2, 3}
	if got := CosineSimilarity(nil, a); got != 0 {
		t.Errorf("CosineSimilarity(nil, a) = %v, want 0", got)
	}
	if got := CosineSimilarity(a, nil); got != 0 {
		t.Errorf("CosineSimilarity(a, nil) = %v, want 0", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("CosineSimilarity(nil, nil) = %v, want 0", got)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	zero := []float32{0, 0, 0}
	a := []float32{1, 2, 3}
	if got := CosineSimilarity(zero, a); got != 0 {
		t.Errorf("zero-norm similarity = %v, want 0", got)
	}
}

func TestCosineSimilarityTruncatesToShorterVector(t *testing.T) {
	short := []float32{1, 0}
	long := []float32{1, 0, 7, 7, 7}
	got := CosineSimilarity(short, long)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("truncated similarity = %v, want 1 (comparison over shared prefix)", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("orthogonal similarity = %v, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("normalized vector has squared norm %v, want 1", sum)
	}

	zero := normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should pass through normalize unchanged")
	}
}
