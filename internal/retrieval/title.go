package retrieval

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"

	"statute-search/internal/contextutil"
	"statute-search/internal/storage"
	"statute-search/internal/vectorstore"
)

// titleMatch fuzzy-matches the law named by the query and searches the
// articles of the matched statutes, by embedding similarity first and
// literal substring second.
type titleMatch struct{ e *engine }

func (s titleMatch) Name() string { return StageTitleMatch }

func (s titleMatch) Attempt(ctx context.Context, q *Query) (Outcome, error) {
	if q.Law == "" {
		return Outcome{}, nil
	}
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" && !q.ListWhenNoKeyword {
		return Outcome{}, nil
	}

	candidates, err := s.e.findStatutes(ctx, q.Law)
	if err != nil {
		return Outcome{}, err
	}
	if len(q.LawIDs) > 0 {
		candidates = slices.DeleteFunc(candidates, func(st storage.Statute) bool {
			return !slices.Contains(q.LawIDs, st.LawID)
		})
	}
	if len(candidates) == 0 {
		return Outcome{}, nil
	}

	if keyword == "" {
		return s.list(ctx, q, candidates[0])
	}

	items, err := s.vector(ctx, q, keyword, candidates)
	if err != nil {
		if !errors.Is(err, ErrDependencyUnavailable) {
			return Outcome{}, err
		}
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "title stage vector search degraded", "error", err)
	}
	if len(items) > 0 {
		return Outcome{Items: items}, nil
	}
	return s.literal(ctx, q, keyword, candidates)
}

func (s titleMatch) list(ctx context.Context, q *Query, st storage.Statute) (Outcome, error) {
	articles, err := s.e.articles.ListByLaw(ctx, st.LawID, "", q.Limit)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Items: make([]Item, len(articles))}
	for i, a := range articles {
		out.Items[i] = itemFromArticle(a, st)
	}
	return out, nil
}

// vector scores the candidate statutes' articles against the keyword.
// Articles not embedded yet are embedded here, scored locally, and written
// back in the background.
func (s titleMatch) vector(ctx context.Context, q *Query, keyword string, candidates []storage.Statute) ([]Item, error) {
	e := s.e
	if !e.vectorReady(ctx) {
		return nil, nil
	}
	lawIDs := make([]string, len(candidates))
	for i, st := range candidates {
		lawIDs[i] = st.LawID
	}

	var missing []storage.Article
	if e.opts.TitleEmbedLimit > 0 {
		var err error
		missing, err = e.articles.ListMissingEmbedding(ctx, storage.EmbeddedQuery{LawIDs: lawIDs, Limit: e.opts.TitleEmbedLimit})
		if err != nil {
			return nil, err
		}
	}
	texts := make([]string, 0, len(missing)+1)
	texts = append(texts, keyword)
	for _, a := range missing {
		texts = append(texts, a.Content)
	}
	vecs, err := e.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	query, fresh := vecs[0], vecs[1:]

	matches, err := e.vectors.Search(ctx, query, vectorstore.SearchOptions{
		TopK:     q.TopK,
		MinScore: e.opts.MinSimilarity,
		LawIDs:   lawIDs,
	})
	if err != nil {
		return nil, unavailable(e.vectors.Name(), err)
	}
	for i, a := range missing {
		if score := vectorstore.Cosine(query, fresh[i]); score >= e.opts.MinSimilarity {
			matches = append(matches, vectorstore.Match{ID: a.ID, Score: score})
		}
	}
	e.writeBack(ctx, missing, fresh)

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	matches = uniqueMatches(matches)
	if q.TopK > 0 && len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	return e.itemsForMatches(ctx, matches)
}

func uniqueMatches(matches []vectorstore.Match) []vectorstore.Match {
	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		if !seen[m.ID] {
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	return out
}

func (s titleMatch) literal(ctx context.Context, q *Query, keyword string, candidates []storage.Statute) (Outcome, error) {
	lawIDs := make([]string, len(candidates))
	for i, st := range candidates {
		lawIDs[i] = st.LawID
	}
	limit := 0
	if q.Limit > 0 {
		limit = q.Limit + 1
	}
	for _, kw := range keywordVariants(keyword) {
		hits, err := s.e.articles.Search(ctx, storage.ArticleQuery{
			LawIDs:         lawIDs,
			ContentPattern: literalPattern(kw),
			Limit:          limit,
		})
		if err != nil {
			return Outcome{}, err
		}
		if len(hits) == 0 {
			continue
		}
		out := Outcome{}
		if q.Limit > 0 && len(hits) > q.Limit {
			hits = hits[:q.Limit]
			out.Truncated = true
		}
		out.Items = itemsFromHits(hits)
		return out, nil
	}
	return Outcome{}, nil
}

// keywordVariants returns the keyword and, when different, the keyword
// without trailing noise phrases.
func keywordVariants(keyword string) []string {
	variants := []string{keyword}
	if stripped := stripTrailingNoise(keyword); stripped != "" && stripped != keyword {
		variants = append(variants, stripped)
	}
	return variants
}
