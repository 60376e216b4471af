package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks statute-search/internal/vectorstore Index

import (
	"context"
	"math"
)

// Point is one article embedding to index.
type Point struct {
	ID    string // article id
	Vec   []float32
	LawID string
	Label string
}

// SearchOptions narrows a similarity search.
type SearchOptions struct {
	// TopK is the maximum number of matches to return.
	TopK int
	// MinScore drops matches whose cosine similarity is below it.
	MinScore float32
	// LawIDs restricts the search to these statutes when non-empty.
	LawIDs []string
}

// Match is one search hit.
type Match struct {
	ID    string // article id
	Score float32
}

// Index defines the interface for vector index operations.
type Index interface {
	// Upsert inserts or updates points.
	Upsert(ctx context.Context, points []Point) error
	// Search returns matches ordered by descending similarity.
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Cosine returns the cosine similarity of a and b, or 0 when the vectors
// differ in length or either has zero magnitude.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
