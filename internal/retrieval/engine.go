// Package retrieval resolves free-form statute references and searches the
// statute corpus through an ordered chain of fallback strategies.
package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks statute-search/internal/retrieval Engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"statute-search/internal/alias"
	"statute-search/internal/citation"
	"statute-search/internal/contextutil"
	"statute-search/internal/metrics"
	"statute-search/internal/ranking"
	"statute-search/internal/searchengine"
	"statute-search/internal/storage"
	"statute-search/internal/vectorstore"
)

// Operation names used in logs and metrics.
const (
	OpResolveArticle  = "resolve_article"
	OpSearchByLaw     = "search_by_law"
	OpSearchGlobal    = "search_global"
	OpSemanticSearch  = "semantic_search"
	OpRetrieve        = "retrieve"
	OpSearchInLaw     = "search_in_law"
	OpArticleByNumber = "article_by_number"
)

const (
	defaultTopK      = 10
	maxTopK          = 50
	defaultPageSize  = 20
	maxPageSize      = 100
	titleCandidates  = 50
	writeBackTimeout = 30 * time.Second
)

// Engine is the statute retrieval API.
type Engine interface {
	// ResolveArticle looks up a precise article citation such as 刑法第十八条.
	// A reference that names no law, or names an article that does not
	// exist, yields a Resolution with Found false.
	ResolveArticle(ctx context.Context, query string) (*Resolution, error)
	// SearchByLaw searches within one statute named by title or alias.
	// An empty keyword lists the statute's articles in display order.
	SearchByLaw(ctx context.Context, law, keyword string, topK int) (*Result, error)
	// SearchGlobal searches the whole corpus and paginates the ranked result.
	SearchGlobal(ctx context.Context, text string, page, pageSize int) (*Page, error)
	// SemanticSearch ranks articles by embedding similarity, falling back
	// to keyword search when the embedding service is unavailable.
	SemanticSearch(ctx context.Context, text string, topK int) (*Result, error)
	// Retrieve builds a numbered knowledge context for an answer generator.
	Retrieve(ctx context.Context, text string, topK int) (*KnowledgeContext, error)
	// SearchInLaw searches the content of one statute by law ID.
	SearchInLaw(ctx context.Context, lawID, query string, page, pageSize int) (*Page, error)
	// ArticleByNumber returns one article of a statute by its number.
	ArticleByNumber(ctx context.Context, lawID string, number, sub int) (*Item, error)
	// Drain waits for background embedding write-backs to finish or for
	// ctx to end, whichever comes first.
	Drain(ctx context.Context) error
}

// AliasResolver maps informal statute names to canonical titles.
type AliasResolver interface {
	Resolve(ctx context.Context, name string) string
}

// WeightProvider supplies the authority weight table.
type WeightProvider interface {
	Weights(ctx context.Context) *ranking.Weights
}

// Embedder computes text embeddings.
type Embedder interface {
	Enabled() bool
	Healthy(ctx context.Context) bool
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchEngine is the optional full-text accelerator.
type SearchEngine interface {
	Enabled() bool
	Healthy(ctx context.Context) bool
	SearchArticles(ctx context.Context, query string, lawIDs []string, page, size int) (*searchengine.Page, error)
}

// Deps are the collaborators of the engine. Embedder, Vectors, Search,
// Pool and Metrics are optional.
type Deps struct {
	Statutes storage.StatuteStore
	Articles storage.ArticleStore
	Aliases  AliasResolver
	Weights  WeightProvider
	Embedder Embedder
	Vectors  vectorstore.Index
	Search   SearchEngine
	Pool     *ants.Pool
	Metrics  *metrics.Recorder
}

// Options tune retrieval.
type Options struct {
	// VectorEnabled turns the embedding-backed stages on.
	VectorEnabled bool
	// MinSimilarity is the cosine similarity floor for vector matches.
	MinSimilarity float32
	// MaxContentChars caps the article content returned per item.
	MaxContentChars int
	// MaxCandidates bounds the literal matches ranked per query.
	MaxCandidates int
	// CandidateLaws bounds the statutes a fuzzy title match may select.
	CandidateLaws int
	// TitleEmbedLimit bounds the articles embedded on the fly by the title stage.
	TitleEmbedLimit int
	// ContextChars caps the knowledge context built by Retrieve.
	ContextChars int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		VectorEnabled:   true,
		MinSimilarity:   0.45,
		MaxContentChars: 1500,
		MaxCandidates:   2000,
		CandidateLaws:   10,
		TitleEmbedLimit: 64,
		ContextChars:    6000,
	}
}

type engine struct {
	statutes storage.StatuteStore
	articles storage.ArticleStore
	aliases  AliasResolver
	weights  WeightProvider
	embedder Embedder
	vectors  vectorstore.Index
	search   SearchEngine
	pool     *ants.Pool
	metrics  *metrics.Recorder
	opts     Options

	writes sync.WaitGroup
}

// NewEngine creates a retrieval engine.
func NewEngine(deps Deps, opts Options) Engine {
	defaults := DefaultOptions()
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaults.MaxCandidates
	}
	if opts.CandidateLaws <= 0 {
		opts.CandidateLaws = defaults.CandidateLaws
	}
	if opts.TitleEmbedLimit < 0 {
		opts.TitleEmbedLimit = 0
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = defaults.ContextChars
	}
	weights := deps.Weights
	if weights == nil {
		weights = uniformWeights{}
	}
	return &engine{
		statutes: deps.Statutes,
		articles: deps.Articles,
		aliases:  deps.Aliases,
		weights:  weights,
		embedder: deps.Embedder,
		vectors:  deps.Vectors,
		search:   deps.Search,
		pool:     deps.Pool,
		metrics:  deps.Metrics,
		opts:     opts,
	}
}

type uniformWeights struct{}

func (uniformWeights) Weights(context.Context) *ranking.Weights { return ranking.Uniform() }

func (e *engine) chain(strategies ...Strategy) chain {
	return chain{strategies: strategies, weights: e.weights, metrics: e.metrics}
}

// ResolveArticle implements Engine.
func (e *engine) ResolveArticle(ctx context.Context, query string) (*Resolution, error) {
	defer e.metrics.Observe(OpResolveArticle, time.Now())
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "query is required"}
	}

	ref := citation.Parse(query)
	res := &Resolution{Query: query, Reference: ref, Items: []Item{}}
	if !ref.HasArticle() || ref.LawName == "" {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "query is not a precise article reference", "query", query)
		return res, nil
	}

	q := &Query{Operation: OpResolveArticle, Text: query, Ref: ref, Law: ref.LawName}
	out, err := e.chain(exactArticle{e}).run(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return res, nil
	}

	statute, err := e.statutes.Get(ctx, out.Items[0].LawID)
	if err != nil {
		return nil, err
	}
	statute.FullText = ""
	res.Found = true
	res.Items = e.finalize(out.Items, "")
	res.Statute = statute
	return res, nil
}

// SearchByLaw implements Engine.
func (e *engine) SearchByLaw(ctx context.Context, law, keyword string, topK int) (*Result, error) {
	defer e.metrics.Observe(OpSearchByLaw, time.Now())
	law = strings.TrimSpace(law)
	if law == "" {
		return nil, &ValidationError{Field: "law", Message: "law is required"}
	}
	topK, err := normalizeTopK(topK)
	if err != nil {
		return nil, err
	}

	keyword = strings.TrimSpace(keyword)
	q := &Query{
		Operation:         OpSearchByLaw,
		Text:              keyword,
		Law:               law,
		ListWhenNoKeyword: true,
		TopK:              topK,
		Limit:             e.opts.MaxCandidates,
	}
	if keyword != "" {
		q.Ref = citation.Parse(keyword)
		q.Keyword = q.Ref.Cleaned
		if q.Keyword == "" && !q.Ref.HasArticle() {
			q.Keyword = keyword
		}
	}

	out, err := e.chain(exactArticle{e}, titleMatch{e}).run(ctx, q)
	if err != nil {
		return nil, err
	}
	return e.result(keyword, out, topK), nil
}

// SearchGlobal implements Engine.
func (e *engine) SearchGlobal(ctx context.Context, text string, page, pageSize int) (*Page, error) {
	defer e.metrics.Observe(OpSearchGlobal, time.Now())
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "query", Message: "query is required"}
	}
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}

	ref := citation.Parse(text)
	q := &Query{
		Operation:  OpSearchGlobal,
		Text:       text,
		Ref:        ref,
		Law:        ref.LawName,
		Keyword:    ref.Keyword,
		Accelerate: true,
		TopK:       e.opts.MaxCandidates,
		Limit:      e.opts.MaxCandidates,
	}
	// Without a separate keyword the whole text is a content query, not a title.
	if !ref.HasArticle() && ref.Keyword == "" {
		q.Law = ""
	}

	out, err := e.chain(exactArticle{e}, titleMatch{e}, keywordRegex{e}).run(ctx, q)
	if err != nil {
		return nil, err
	}

	p := &Page{
		Query:     text,
		Stage:     out.Stage,
		Total:     len(out.Items),
		Page:      page,
		PageSize:  pageSize,
		Truncated: out.Truncated,
		Items:     []Item{},
	}
	p.TotalPages = int(math.Ceil(float64(p.Total) / float64(pageSize)))
	start := (page - 1) * pageSize
	if start < len(out.Items) {
		end := min(start+pageSize, len(out.Items))
		p.Items = e.finalize(out.Items[start:end], q.searchText())
	}
	return p, nil
}

// SemanticSearch implements Engine.
func (e *engine) SemanticSearch(ctx context.Context, text string, topK int) (*Result, error) {
	defer e.metrics.Observe(OpSemanticSearch, time.Now())
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "query", Message: "query is required"}
	}
	topK, err := normalizeTopK(topK)
	if err != nil {
		return nil, err
	}

	ref := citation.Parse(text)
	q := &Query{
		Operation: OpSemanticSearch,
		Text:      text,
		Ref:       ref,
		Keyword:   ref.Cleaned,
		TopK:      topK,
		Limit:     e.opts.MaxCandidates,
	}
	out, err := e.chain(vectorSemantic{e}, keywordRegex{e}).run(ctx, q)
	if err != nil {
		return nil, err
	}
	return e.result(text, out, topK), nil
}

func (e *engine) result(query string, out Outcome, topK int) *Result {
	items := out.Items
	if len(items) > topK {
		items = items[:topK]
	}
	return &Result{
		Query: query,
		Stage: out.Stage,
		Found: len(items) > 0,
		Items: e.finalize(items, ""),
	}
}

// finalize copies items for output, adding highlights for query when set
// and capping content length.
func (e *engine) finalize(items []Item, query string) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		if query != "" && item.Highlight == "" {
			item.Highlight = highlight(item.Content, query)
		}
		item.Content = truncate(item.Content, e.opts.MaxContentChars)
		out[i] = item
	}
	return out
}

// findStatutes fuzzy-matches a statute name to candidate statutes, keeping
// only the latest revision of each base title. Candidates whose base title
// is the name itself come first, then statutes in force, then higher
// authority, then shorter titles.
func (e *engine) findStatutes(ctx context.Context, name string) ([]storage.Statute, error) {
	canonical := alias.Normalize(name)
	if e.aliases != nil {
		canonical = e.aliases.Resolve(ctx, name)
	}

	var found []storage.Statute
	for _, pattern := range titlePatterns(canonical) {
		var err error
		found, err = e.statutes.FindByTitle(ctx, pattern, titleCandidates)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			break
		}
	}
	if len(found) == 0 {
		return nil, nil
	}

	titles := make([]string, len(found))
	for i, s := range found {
		titles[i] = s.Title
	}
	latest := make([]storage.Statute, 0, len(found))
	for _, i := range ranking.LatestRevisions(titles) {
		latest = append(latest, found[i])
	}

	key := alias.Normalize(canonical)
	weights := e.weights.Weights(ctx)
	sort.SliceStable(latest, func(i, j int) bool {
		a, b := latest[i], latest[j]
		if ea, eb := alias.Normalize(ranking.BaseTitle(a.Title)) == key, alias.Normalize(ranking.BaseTitle(b.Title)) == key; ea != eb {
			return ea
		}
		if fa, fb := a.Status == storage.DefaultStatus, b.Status == storage.DefaultStatus; fa != fb {
			return fa
		}
		if wa, wb := weights.Weight(a.Title), weights.Weight(b.Title); wa != wb {
			return wa > wb
		}
		return len([]rune(a.Title)) < len([]rune(b.Title))
	})
	if len(latest) > e.opts.CandidateLaws {
		latest = latest[:e.opts.CandidateLaws]
	}
	return latest, nil
}

// vectorReady reports whether the embedding-backed stages can run.
func (e *engine) vectorReady(ctx context.Context) bool {
	if !e.opts.VectorEnabled || e.vectors == nil || e.embedder == nil || !e.embedder.Enabled() {
		return false
	}
	up := e.embedder.Healthy(ctx)
	e.metrics.Dependency("embedding", up)
	return up
}

func (e *engine) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, unavailable("embedding", err)
	}
	return vecs, nil
}

// vectorItems runs a similarity search and loads the matched articles,
// carrying the similarity as the item score.
func (e *engine) vectorItems(ctx context.Context, vec []float32, lawIDs []string, topK int) ([]Item, error) {
	matches, err := e.vectors.Search(ctx, vec, vectorstore.SearchOptions{
		TopK:     topK,
		MinScore: e.opts.MinSimilarity,
		LawIDs:   lawIDs,
	})
	if err != nil {
		return nil, unavailable(e.vectors.Name(), err)
	}
	return e.itemsForMatches(ctx, matches)
}

func (e *engine) itemsForMatches(ctx context.Context, matches []vectorstore.Match) ([]Item, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	ids := make([]string, len(matches))
	scores := make(map[string]float32, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
		scores[m.ID] = m.Score
	}
	hits, err := e.articles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := itemsFromHits(hits)
	for i := range items {
		items[i].Score = scores[items[i].ArticleID]
	}
	return items, nil
}

// writeBack persists embeddings computed during a request. It runs on the
// shared pool after the request returns; failures are only logged since the
// value is recomputed deterministically next time.
func (e *engine) writeBack(ctx context.Context, articles []storage.Article, vecs [][]float32) {
	if len(articles) == 0 || e.vectors == nil {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	points := make([]vectorstore.Point, len(articles))
	for i, a := range articles {
		points[i] = vectorstore.Point{ID: a.ID, Vec: vecs[i], LawID: a.LawID, Label: a.Label}
	}

	e.writes.Add(1)
	task := func() {
		defer e.writes.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeBackTimeout)
		defer cancel()

		// The scan index stores embeddings on the articles themselves.
		if _, scan := e.vectors.(*vectorstore.ScanIndex); !scan {
			for _, p := range points {
				if err := e.articles.SetEmbedding(bg, p.ID, p.Vec); err != nil {
					logger.WarnContext(bg, "failed to store article embedding", "article_id", p.ID, "error", err)
				}
			}
		}
		if err := e.vectors.Upsert(bg, points); err != nil {
			logger.WarnContext(bg, "failed to index article embeddings", "count", len(points), "error", err)
			return
		}
		logger.DebugContext(bg, "stored computed embeddings", "count", len(points))
	}

	if e.pool == nil {
		go task()
		return
	}
	if err := e.pool.Submit(task); err != nil {
		e.writes.Done()
		logger.WarnContext(ctx, "embedding write-back dropped", "count", len(points), "error", err)
	}
}

func (e *engine) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("embedding write-backs still running: %w", ctx.Err())
	}
}

func normalizeTopK(topK int) (int, error) {
	switch {
	case topK < 0:
		return 0, &ValidationError{Field: "top_k", Message: "top_k must not be negative"}
	case topK == 0:
		return defaultTopK, nil
	case topK > maxTopK:
		return maxTopK, nil
	default:
		return topK, nil
	}
}

func normalizePage(page, pageSize int) (int, int, error) {
	if page < 0 {
		return 0, 0, &ValidationError{Field: "page", Message: "page must not be negative"}
	}
	if pageSize < 0 {
		return 0, 0, &ValidationError{Field: "page_size", Message: "page_size must not be negative"}
	}
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, nil
}
