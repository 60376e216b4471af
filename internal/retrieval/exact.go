package retrieval

import (
	"context"
	"slices"

	"statute-search/internal/contextutil"
	"statute-search/internal/storage"
)

// exactArticle resolves a law name plus article number to that article of
// the latest revision. It is terminal once it has a law name and an
// article number: a precise citation that misses returns nothing rather
// than unrelated keyword hits.
type exactArticle struct{ e *engine }

func (s exactArticle) Name() string { return StageExactArticle }

func (s exactArticle) Attempt(ctx context.Context, q *Query) (Outcome, error) {
	if !q.Ref.HasArticle() || q.Law == "" {
		return Outcome{}, nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	candidates, err := s.e.findStatutes(ctx, q.Law)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Terminal: true}
	st, ok := s.topCandidate(q, candidates)
	if !ok {
		logger.InfoContext(ctx, "article reference not found", "law", q.Law, "label", q.Ref.Label(), "candidates", len(candidates))
		return out, nil
	}

	// Only the best-matching statute is consulted: another statute's
	// article with the same label is never a substitute.
	articles, err := s.e.articles.FindByLabel(ctx, st.LawID, labelPattern(q.Ref.Article, q.Ref.Sub))
	if err != nil {
		return Outcome{}, err
	}
	if len(articles) == 0 {
		logger.InfoContext(ctx, "article reference not found", "law", q.Law, "law_id", st.LawID, "title", st.Title, "label", q.Ref.Label())
		return out, nil
	}
	for _, a := range articles {
		out.Items = append(out.Items, itemFromArticle(a, st))
	}
	logger.DebugContext(ctx, "article reference resolved", "law_id", st.LawID, "title", st.Title, "label", q.Ref.Label())
	return out, nil
}

// topCandidate returns the first candidate inside the query's law scope.
func (s exactArticle) topCandidate(q *Query, candidates []storage.Statute) (storage.Statute, bool) {
	for _, st := range candidates {
		if len(q.LawIDs) == 0 || slices.Contains(q.LawIDs, st.LawID) {
			return st, true
		}
	}
	return storage.Statute{}, false
}
