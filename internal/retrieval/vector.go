package retrieval

import "context"

// vectorSemantic ranks embedded articles by cosine similarity to the query.
type vectorSemantic struct{ e *engine }

func (s vectorSemantic) Name() string { return StageVectorSemantic }

func (s vectorSemantic) Attempt(ctx context.Context, q *Query) (Outcome, error) {
	text := q.searchText()
	if text == "" || !s.e.vectorReady(ctx) {
		return Outcome{}, nil
	}
	vecs, err := s.e.embed(ctx, []string{text})
	if err != nil {
		return Outcome{}, err
	}
	items, err := s.e.vectorItems(ctx, vecs[0], q.LawIDs, q.TopK)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Items: items}, nil
}
