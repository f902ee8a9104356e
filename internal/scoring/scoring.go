// Package scoring grades spoken answers against expected answers.
//
// Answers are compared by the cosine of their sentence embeddings when an
// Embedder is configured. Without one the scorer falls back to a lexical
// term-frequency cosine.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

var (
	// ErrUnavailable is returned by an Embedder that has no model behind it.
	ErrUnavailable = errors.New("embedding model unavailable")
	ErrEmbedding   = errors.New("embedding failed")
)

// Embedder maps text to a dense sentence vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Unavailable returns an Embedder that always fails with ErrUnavailable.
func Unavailable() Embedder {
	return unavailable{}
}

type unavailable struct{}

func (unavailable) Embed(context.Context, string) ([]float64, error) {
	return nil, ErrUnavailable
}

// DefaultThreshold is the minimum similarity for full points.
const DefaultThreshold = 0.80

// Result is the outcome of grading one answer.
type Result struct {
	Similarity float64 `json:"similarity_score"`
	Points     int     `json:"points_awarded"`
	MaxPoints  int     `json:"max_points"`
	IsCorrect  bool    `json:"is_correct"`
}

// Scorer awards all or nothing based on a similarity threshold.
type Scorer struct {
	threshold float64
	embedder  Embedder
}

// New returns a lexical scorer. Use WithEmbedder to score semantically.
func New(threshold float64) *Scorer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Scorer{threshold: threshold, embedder: unavailable{}}
}

// WithEmbedder sets the model used for semantic similarity. A nil embedder
// keeps lexical scoring.
func (s *Scorer) WithEmbedder(e Embedder) *Scorer {
	if e == nil {
		e = unavailable{}
	}
	s.embedder = e
	return s
}

func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Award returns maxPoints when similarity reaches the threshold, else 0.
func (s *Scorer) Award(similarity float64, maxPoints int) int {
	if similarity >= s.threshold {
		return maxPoints
	}
	return 0
}

// Score grades answer against expected. Errors other than ErrUnavailable
// from the embedder are returned wrapped in ErrEmbedding.
func (s *Scorer) Score(ctx context.Context, answer, expected string, maxPoints int) (Result, error) {
	sim, err := s.Similarity(ctx, answer, expected)
	if err != nil {
		return Result{}, err
	}

	points := s.Award(sim, maxPoints)
	return Result{
		Similarity: sim,
		Points:     points,
		MaxPoints:  maxPoints,
		IsCorrect:  points == maxPoints,
	}, nil
}

// Similarity compares answer and expected with the configured embedder,
// or lexically when none is available. An empty answer scores 0.
func (s *Scorer) Similarity(ctx context.Context, answer, expected string) (float64, error) {
	if strings.TrimSpace(answer) == "" || strings.TrimSpace(expected) == "" {
		return 0, nil
	}

	va, err := s.embedder.Embed(ctx, answer)
	if errors.Is(err, ErrUnavailable) {
		return Similarity(answer, expected), nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	vb, err := s.embedder.Embed(ctx, expected)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	return Cosine(va, vb)
}

// Cosine is the cosine similarity of two vectors clamped to [0, 1].
// Opposed vectors score 0.
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector dimensions %d and %d", ErrEmbedding, len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(1, math.Max(0, sim)), nil
}

// Similarity is the lexical fallback: the cosine similarity of the
// term-frequency vectors of a and b, in [0, 1]. An empty answer scores 0.
func Similarity(a, b string) float64 {
	ta, tb := termFrequencies(a), termFrequencies(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var dot, na, nb float64
	for term, ca := range ta {
		na += ca * ca
		if cb, ok := tb[term]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range tb {
		nb += cb * cb
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(1, math.Max(0, sim))
}

// Tokenize splits s into lowercase runs of letters and digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termFrequencies(s string) map[string]float64 {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return nil
	}
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}
