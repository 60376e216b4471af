package retrieval

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"statute-search/internal/citation"
	"statute-search/internal/storage"
)

// SearchInLaw implements Engine. An article reference in query is looked
// up by label first; otherwise, or when that misses, the statute's content
// is searched literally. An empty query pages through all articles.
func (e *engine) SearchInLaw(ctx context.Context, lawID, query string, page, pageSize int) (*Page, error) {
	defer e.metrics.Observe(OpSearchInLaw, time.Now())
	if strings.TrimSpace(lawID) == "" {
		return nil, &ValidationError{Field: "law_id", Message: "law_id is required"}
	}
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}
	statute, err := e.statutes.Get(ctx, lawID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	p := &Page{Query: query, Page: page, PageSize: pageSize, Items: []Item{}}

	if ref := citation.Parse(query); ref.HasArticle() {
		articles, err := e.articles.FindByLabel(ctx, lawID, labelPattern(ref.Article, ref.Sub))
		if err != nil {
			return nil, err
		}
		if len(articles) > 0 {
			items := make([]Item, len(articles))
			for i, a := range articles {
				items[i] = itemFromArticle(a, *statute)
			}
			p.Stage = StageExactArticle
			p.Items = e.finalize(items, "")
			p.Total = len(items)
			p.TotalPages = 1
			return p, nil
		}
	}

	aq := storage.ArticleQuery{LawIDs: []string{lawID}, Limit: pageSize, Offset: (page - 1) * pageSize}
	if query != "" {
		aq.ContentPattern = literalPattern(query)
		p.Stage = StageKeywordRegex
	}

	var hits []storage.ArticleHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = e.articles.Search(gctx, aq)
		return err
	})
	g.Go(func() error {
		var err error
		p.Total, err = e.articles.Count(gctx, aq)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.TotalPages = int(math.Ceil(float64(p.Total) / float64(pageSize)))
	p.Items = e.finalize(itemsFromHits(hits), query)
	return p, nil
}

// ArticleByNumber implements Engine. It returns storage.ErrNotFound when
// the statute or the article does not exist.
func (e *engine) ArticleByNumber(ctx context.Context, lawID string, number, sub int) (*Item, error) {
	defer e.metrics.Observe(OpArticleByNumber, time.Now())
	if number <= 0 {
		return nil, &ValidationError{Field: "number", Message: "article number must be positive"}
	}
	statute, err := e.statutes.Get(ctx, lawID)
	if err != nil {
		return nil, err
	}
	articles, err := e.articles.FindByLabel(ctx, lawID, labelPattern(number, sub))
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, storage.ErrNotFound
	}
	item := e.finalize([]Item{itemFromArticle(articles[0], *statute)}, "")[0]
	return &item, nil
}
