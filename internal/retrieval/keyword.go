package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"statute-search/internal/contextutil"
	"statute-search/internal/searchengine"
	"statute-search/internal/storage"
)

// bigramMaxRunes is the longest query decomposed into bigrams.
const bigramMaxRunes = 12

// keywordRegex matches the query literally against article content, with
// the search engine as an optional accelerator. On a miss it retries
// without trailing noise phrases, then with character bigrams.
type keywordRegex struct{ e *engine }

func (s keywordRegex) Name() string { return StageKeywordRegex }

func (s keywordRegex) Attempt(ctx context.Context, q *Query) (Outcome, error) {
	text := q.searchText()
	if text == "" {
		return Outcome{}, nil
	}

	if q.Accelerate {
		out, err := s.accelerated(ctx, q, text)
		if err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "search engine degraded, using corpus index", "error", err)
		} else if len(out.Items) > 0 {
			return out, nil
		}
	}

	for _, kw := range keywordVariants(text) {
		out, err := s.literal(ctx, q, kw)
		if err != nil {
			return Outcome{}, err
		}
		if len(out.Items) > 0 {
			return out, nil
		}
	}
	return s.bigram(ctx, q, stripTrailingNoise(text))
}

func (s keywordRegex) accelerated(ctx context.Context, q *Query, text string) (Outcome, error) {
	se := s.e.search
	if se == nil || !se.Enabled() {
		return Outcome{}, nil
	}
	up := se.Healthy(ctx)
	s.e.metrics.Dependency("search_engine", up)
	if !up {
		return Outcome{}, unavailable("search_engine", searchengine.ErrDisabled)
	}

	page, err := se.SearchArticles(ctx, text, q.LawIDs, 1, q.Limit)
	if err != nil {
		return Outcome{}, unavailable("search_engine", err)
	}
	out := Outcome{Items: make([]Item, len(page.Hits)), Truncated: page.Total > len(page.Hits)}
	for i, h := range page.Hits {
		out.Items[i] = Item{
			LawID:        h.LawID,
			LawTitle:     h.LawTitle,
			DisplayTitle: displayTitle(h.LawTitle, h.LawStatus),
			Category:     h.LawCategory,
			Status:       h.LawStatus,
			Sequence:     h.ArticleNum,
			Label:        h.ArticleDisplay,
			Content:      h.Content,
			Highlight:    h.Highlight,
			Score:        float32(h.Score),
		}
	}
	return out, nil
}

// literal fetches the bounded candidate set and the full match count
// concurrently.
func (s keywordRegex) literal(ctx context.Context, q *Query, keyword string) (Outcome, error) {
	aq := storage.ArticleQuery{LawIDs: q.LawIDs, ContentPattern: literalPattern(keyword), Limit: q.Limit}

	var hits []storage.ArticleHit
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = s.e.articles.Search(gctx, aq)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.e.articles.Count(gctx, aq)
		return err
	})
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}
	return Outcome{Items: itemsFromHits(hits), Truncated: total > len(hits)}, nil
}

// bigram matches any bigram of a short query and keeps articles that
// contain at least half of them, most bigrams first.
func (s keywordRegex) bigram(ctx context.Context, q *Query, text string) (Outcome, error) {
	if len([]rune(text)) > bigramMaxRunes {
		return Outcome{}, nil
	}
	grams := bigrams(text)
	if len(grams) < 2 {
		return Outcome{}, nil
	}

	hits, err := s.e.articles.Search(ctx, storage.ArticleQuery{
		LawIDs:         q.LawIDs,
		ContentPattern: anyOfPattern(grams),
		Limit:          q.Limit,
	})
	if err != nil {
		return Outcome{}, err
	}

	need := (len(grams) + 1) / 2
	items := make([]Item, 0, len(hits))
	for _, h := range hits {
		n := bigramHits(h.Content, grams)
		if n < need {
			continue
		}
		item := itemFromHit(h)
		item.Score = float32(n) / float32(len(grams))
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return Outcome{Items: items}, nil
}
