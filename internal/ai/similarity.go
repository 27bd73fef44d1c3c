package ai

import "math"

// CosineSimilarity computes the cosine similarity between two embedding
// vectors. Vectors of differing length are compared over their shared
// prefix, which keeps scoring defined when embeddings from different model
// versions coexist in one corpus. Empty vectors and zero norms score 0.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
