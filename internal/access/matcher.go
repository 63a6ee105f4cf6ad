package access

import (
	"math"

	"github.com/Gabrielpanashe/Face-Access-System/internal/models"
)

// noCandidateDistance is reported when there is nothing to match against:
// a maximal plausible distance, not an error.
const noCandidateDistance = 1.0

// CosineDistance is 1 - cosine similarity: 0 for identical direction,
// approximately [0,2] overall. Mismatched or empty vectors score as
// maximally distant so they can never satisfy a match threshold.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}

	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// Match scans candidates linearly for the identity nearest to probe by
// cosine distance. The first candidate achieving the minimum wins ties.
// The match succeeds only when the best distance is strictly below
// threshold; the best distance is reported either way. Empty candidates
// return (nil, 1.0).
func Match(probe []float32, candidates []models.Identity, threshold float64) (*models.Identity, float64) {
	if len(candidates) == 0 {
		return nil, noCandidateDistance
	}

	bestDist := math.Inf(1)
	bestIdx := -1
	for i := range candidates {
		if d := CosineDistance(probe, candidates[i].Embedding); d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}

	if bestDist < threshold {
		return &candidates[bestIdx], bestDist
	}
	return nil, bestDist
}
