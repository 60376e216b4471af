package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_statute_store.go -package=mocks statute-search/internal/storage StatuteStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// StatuteFilter narrows a statute listing. Empty fields match everything.
type StatuteFilter struct {
	Category string
	Level    string
	Status   string
	Tag      string
	Page     int
	PageSize int
}

// StatuteStore defines the interface for statute storage operations.
type StatuteStore interface {
	// Replace writes a statute and replaces all of its articles.
	Replace(ctx context.Context, statute *Statute, articles []Article) error
	// Get returns a statute by law ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, lawID string) (*Statute, error)
	// FindByTitle returns statutes whose title matches pattern, without full text.
	FindByTitle(ctx context.Context, pattern string, limit int) ([]Statute, error)
	// List returns one page of statutes, newest effect date first, and the total count.
	List(ctx context.Context, filter StatuteFilter) ([]Statute, int, error)
	// Distinct returns the sorted, non-empty distinct values of "category" or "level".
	Distinct(ctx context.Context, field string) ([]string, error)
}

// StatuteRepo provides methods for statute operations.
// It implements the StatuteStore interface.
type StatuteRepo struct {
	db *sql.DB
}

// NewStatuteRepo creates a new StatuteRepo.
func NewStatuteRepo(db *sql.DB) *StatuteRepo {
	return &StatuteRepo{db: db}
}

const statuteColumns = "law_id, title, category, level, issue_org, issue_date, effect_date, status, summary, tags, source_url"

// Replace writes a statute and replaces all of its articles in one transaction.
// An empty LawID is derived from the title; empty article IDs get a new UUID.
func (r *StatuteRepo) Replace(ctx context.Context, statute *Statute, articles []Article) error {
	if strings.TrimSpace(statute.Title) == "" {
		return fmt.Errorf("statute title is required")
	}
	if statute.LawID == "" {
		statute.LawID = LawID(statute.Title)
	}
	if statute.Status == "" {
		statute.Status = DefaultStatus
	}

	tags, err := json.Marshal(nonNil(statute.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO statutes (`+statuteColumns+`, full_text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(law_id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			level = excluded.level,
			issue_org = excluded.issue_org,
			issue_date = excluded.issue_date,
			effect_date = excluded.effect_date,
			status = excluded.status,
			summary = excluded.summary,
			tags = excluded.tags,
			source_url = excluded.source_url,
			full_text = excluded.full_text,
			updated_at = CURRENT_TIMESTAMP`,
		statute.LawID, statute.Title, statute.Category, statute.Level, statute.IssueOrg,
		statute.IssueDate, statute.EffectDate, statute.Status, statute.Summary, string(tags),
		statute.SourceURL, statute.FullText,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert statute: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE law_id = ?", statute.LawID); err != nil {
		return fmt.Errorf("failed to delete articles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, law_id, sequence, label, chapter_path, content, keywords, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare article insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i := range articles {
		a := &articles[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		a.LawID = statute.LawID
		keywords, err := json.Marshal(nonNil(a.Keywords))
		if err != nil {
			return fmt.Errorf("failed to encode keywords: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.LawID, a.Sequence, a.Label, a.ChapterPath, a.Content, string(keywords), encodeVector(a.Embedding)); err != nil {
			return fmt.Errorf("failed to insert article %s: %w", a.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit statute: %w", err)
	}
	return nil
}

// Get returns a statute by law ID, including its full text.
func (r *StatuteRepo) Get(ctx context.Context, lawID string) (*Statute, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+statuteColumns+", full_text FROM statutes WHERE law_id = ?", lawID)

	var s Statute
	var tags string
	err := row.Scan(&s.LawID, &s.Title, &s.Category, &s.Level, &s.IssueOrg, &s.IssueDate,
		&s.EffectDate, &s.Status, &s.Summary, &tags, &s.SourceURL, &s.FullText)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query statute: %w", err)
	}
	s.Tags = decodeStrings(tags)
	return &s, nil
}

// FindByTitle returns statutes whose title matches the regexp2 pattern.
func (r *StatuteRepo) FindByTitle(ctx context.Context, pattern string, limit int) ([]Statute, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statuteColumns+" FROM statutes WHERE title REGEXP ? ORDER BY length(title), title LIMIT ?",
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query statutes by title: %w", err)
	}
	return scanStatutes(rows)
}

// List returns one page of statutes ordered by effect date, newest first.
func (r *StatuteRepo) List(ctx context.Context, filter StatuteFilter) ([]Statute, int, error) {
	var where []string
	var args []any
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Level != "" {
		where = append(where, "level = ?")
		args = append(args, filter.Level)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(statutes.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM statutes"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count statutes: %w", err)
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statuteColumns+" FROM statutes"+clause+" ORDER BY effect_date DESC, title LIMIT ? OFFSET ?",
		append(args, size, (page-1)*size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list statutes: %w", err)
	}
	statutes, err := scanStatutes(rows)
	if err != nil {
		return nil, 0, err
	}
	return statutes, total, nil
}

// Distinct returns sorted non-empty distinct values of category or level.
func (r *StatuteRepo) Distinct(ctx context.Context, field string) ([]string, error) {
	switch field {
	case "category", "level":
	default:
		return nil, fmt.Errorf("unsupported distinct field %q", field)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT "+field+" FROM statutes WHERE "+field+" != '' ORDER BY "+field)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", field, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return values, nil
}

func scanStatutes(rows *sql.Rows) ([]Statute, error) {
	defer func() {
		_ = rows.Close()
	}()

	var statutes []Statute
	for rows.Next() {
		var s Statute
		var tags string
		if err := rows.Scan(&s.LawID, &s.Title, &s.Category, &s.Level, &s.IssueOrg, &s.IssueDate,
			&s.EffectDate, &s.Status, &s.Summary, &tags, &s.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan statute: %w", err)
		}
		s.Tags = decodeStrings(tags)
		statutes = append(statutes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return statutes, nil
}

func decodeStrings(raw string) []string {
	var out []string
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// normalizePage clamps page to at least 1 and size to [1, 100], default 20.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
