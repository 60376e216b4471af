package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_article_store.go -package=mocks statute-search/internal/storage ArticleStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ArticleQuery selects joined article rows.
type ArticleQuery struct {
	// LawIDs restricts the search to these statutes when non-empty.
	LawIDs []string
	// ContentPattern is a regexp2 pattern matched against article content.
	ContentPattern string
	Limit          int
	Offset         int
}

// EmbeddedQuery selects articles by embedding state.
type EmbeddedQuery struct {
	LawIDs []string
	Limit  int
	// Offset skips rows; only ListMissingEmbedding honours it.
	Offset int
}

// Coverage summarises the corpus and its embedding coverage.
type Coverage struct {
	Statutes int
	Articles int
	Embedded int
	// ContentLengths holds the rune length of every article, ascending.
	ContentLengths []int
}

// ArticleStore defines the interface for article storage operations.
type ArticleStore interface {
	// FindByLabel returns the articles of one statute whose label matches pattern, in display order.
	FindByLabel(ctx context.Context, lawID, pattern string) ([]Article, error)
	// ListByLaw returns the articles of one statute in display order, optionally within one chapter.
	ListByLaw(ctx context.Context, lawID, chapter string, limit int) ([]Article, error)
	// Search returns articles joined with statute metadata, ordered by authority level then display order.
	Search(ctx context.Context, q ArticleQuery) ([]ArticleHit, error)
	// Count returns the number of rows Search would return without Limit and Offset.
	Count(ctx context.Context, q ArticleQuery) (int, error)
	// GetByIDs returns the joined rows for ids, in the order of ids. Unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]ArticleHit, error)
	// ListEmbedded returns a bounded snapshot of embedded articles, highest authority first.
	ListEmbedded(ctx context.Context, q EmbeddedQuery) ([]Article, error)
	// ListMissingEmbedding returns up to q.Limit articles without an embedding.
	ListMissingEmbedding(ctx context.Context, q EmbeddedQuery) ([]Article, error)
	// SetEmbedding stores the embedding of one article. Last writer wins.
	SetEmbedding(ctx context.Context, id string, vec []float32) error
	// Coverage counts statutes, articles and embedded articles.
	Coverage(ctx context.Context) (*Coverage, error)
}

// ArticleRepo provides methods for article operations.
// It implements the ArticleStore interface.
type ArticleRepo struct {
	db *sql.DB
}

// NewArticleRepo creates a new ArticleRepo.
func NewArticleRepo(db *sql.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = "a.id, a.law_id, a.sequence, a.label, a.chapter_path, a.content, a.keywords"

const hitColumns = articleColumns + ", s.title, s.category, s.level, s.status, s.issue_org, s.effect_date"

// FindByLabel returns the articles of lawID whose label matches pattern.
func (r *ArticleRepo) FindByLabel(ctx context.Context, lawID, pattern string) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+articleColumns+" FROM articles a WHERE a.law_id = ? AND a.label REGEXP ? ORDER BY a.sequence",
		lawID, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles by label: %w", err)
	}
	return scanArticles(rows, false)
}

// ListByLaw returns the articles of lawID in display order.
func (r *ArticleRepo) ListByLaw(ctx context.Context, lawID, chapter string, limit int) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles a WHERE a.law_id = ?"
	args := []any{lawID}
	if chapter != "" {
		query += " AND a.chapter_path LIKE ?"
		args = append(args, "%"+chapter+"%")
	}
	query += " ORDER BY a.sequence"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return scanArticles(rows, false)
}

// Search returns joined rows matching q.
func (r *ArticleRepo) Search(ctx context.Context, q ArticleQuery) ([]ArticleHit, error) {
	clause, args := q.where()
	query := "SELECT " + hitColumns + " FROM articles a JOIN statutes s ON s.law_id = a.law_id" + clause +
		" ORDER BY " + levelRank + ", a.law_id, a.sequence"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, max(q.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	return scanHits(rows)
}

// Count returns the number of rows matching q, ignoring Limit and Offset.
func (r *ArticleRepo) Count(ctx context.Context, q ArticleQuery) (int, error) {
	clause, args := q.where()
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles a JOIN statutes s ON s.law_id = a.law_id"+clause, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (q ArticleQuery) where() (string, []any) {
	var conds []string
	var args []any
	if len(q.LawIDs) > 0 {
		conds = append(conds, "a.law_id IN ("+placeholders(len(q.LawIDs))+")")
		for _, id := range q.LawIDs {
			args = append(args, id)
		}
	}
	if q.ContentPattern != "" {
		conds = append(conds, "a.content REGEXP ?")
		args = append(args, q.ContentPattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetByIDs returns joined rows for ids, preserving the order of ids.
func (r *ArticleRepo) GetByIDs(ctx context.Context, ids []string) ([]ArticleHit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+hitColumns+" FROM articles a JOIN statutes s ON s.law_id = a.law_id WHERE a.id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	hits, err := scanHits(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]ArticleHit, len(hits))
	for _, h := range hits {
		byID[h.ID] = h
	}
	ordered := make([]ArticleHit, 0, len(hits))
	for _, id := range ids {
		if h, ok := byID[id]; ok {
			ordered = append(ordered, h)
		}
	}
	return ordered, nil
}

// ListEmbedded returns up to q.Limit embedded articles. Statutes in force
// come first, then higher authority levels, so a truncated snapshot drops
// the least authoritative material.
func (r *ArticleRepo) ListEmbedded(ctx context.Context, q EmbeddedQuery) ([]Article, error) {
	query := "SELECT " + articleColumns + ", a.embedding FROM articles a JOIN statutes s ON s.law_id = a.law_id WHERE a.embedding IS NOT NULL"
	var args []any
	if len(q.LawIDs) > 0 {
		query += " AND a.law_id IN (" + placeholders(len(q.LawIDs)) + ")"
		for _, id := range q.LawIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY CASE WHEN s.status = '" + DefaultStatus + "' THEN 0 ELSE 1 END, " + levelRank + ", a.law_id, a.sequence"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded articles: %w", err)
	}
	return scanArticles(rows, true)
}

// ListMissingEmbedding returns up to q.Limit articles without an embedding,
// optionally restricted to q.LawIDs.
func (r *ArticleRepo) ListMissingEmbedding(ctx context.Context, q EmbeddedQuery) ([]Article, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT " + articleColumns + " FROM articles a WHERE a.embedding IS NULL"
	var args []any
	if len(q.LawIDs) > 0 {
		query += " AND a.law_id IN (" + placeholders(len(q.LawIDs)) + ")"
		for _, id := range q.LawIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY a.law_id, a.sequence LIMIT ? OFFSET ?"
	args = append(args, limit, max(q.Offset, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles without embedding: %w", err)
	}
	return scanArticles(rows, false)
}

// SetEmbedding stores vec on the article with the given id.
func (r *ArticleRepo) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	res, err := r.db.ExecContext(ctx, "UPDATE articles SET embedding = ? WHERE id = ?", encodeVector(vec), id)
	if err != nil {
		return fmt.Errorf("failed to set embedding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Coverage returns corpus counts and the content length distribution.
func (r *ArticleRepo) Coverage(ctx context.Context) (*Coverage, error) {
	c := &Coverage{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM statutes),
			(SELECT COUNT(*) FROM articles),
			(SELECT COUNT(*) FROM articles WHERE embedding IS NOT NULL)`).Scan(&c.Statutes, &c.Articles, &c.Embedded)
	if err != nil {
		return nil, fmt.Errorf("failed to count corpus: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT length(content) FROM articles ORDER BY 1")
	if err != nil {
		return nil, fmt.Errorf("failed to query content lengths: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	c.ContentLengths = make([]int, 0, c.Articles)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan content length: %w", err)
		}
		c.ContentLengths = append(c.ContentLengths, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return c, nil
}

func scanArticles(rows *sql.Rows, withEmbedding bool) ([]Article, error) {
	defer func() {
		_ = rows.Close()
	}()

	var articles []Article
	for rows.Next() {
		var a Article
		var keywords string
		dest := []any{&a.ID, &a.LawID, &a.Sequence, &a.Label, &a.ChapterPath, &a.Content, &keywords}
		var blob []byte
		if withEmbedding {
			dest = append(dest, &blob)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		a.Keywords = decodeStrings(keywords)
		if withEmbedding {
			vec, err := decodeVector(blob)
			if err != nil {
				return nil, fmt.Errorf("article %s: %w", a.ID, err)
			}
			a.Embedding = vec
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return articles, nil
}

func scanHits(rows *sql.Rows) ([]ArticleHit, error) {
	defer func() {
		_ = rows.Close()
	}()

	var hits []ArticleHit
	for rows.Next() {
		var h ArticleHit
		var keywords string
		if err := rows.Scan(&h.ID, &h.LawID, &h.Sequence, &h.Label, &h.ChapterPath, &h.Content, &keywords,
			&h.Statute.Title, &h.Statute.Category, &h.Statute.Level, &h.Statute.Status,
			&h.Statute.IssueOrg, &h.Statute.EffectDate); err != nil {
			return nil, fmt.Errorf("failed to scan article hit: %w", err)
		}
		h.Keywords = decodeStrings(keywords)
		h.Statute.LawID = h.LawID
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return hits, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
