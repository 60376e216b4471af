package retrieval

import (
	"statute-search/internal/citation"
	"statute-search/internal/storage"
)

// Stage names, in chain order.
const (
	StageExactArticle   = "exact_article"
	StageTitleMatch     = "title_match"
	StageVectorSemantic = "vector_semantic"
	StageKeywordRegex   = "keyword_regex"
)

// Item is one retrieved article.
type Item struct {
	ArticleID string `json:"article_id,omitempty"`
	LawID     string `json:"law_id"`
	// LawTitle is the statute title as stored, including any revision annotation.
	LawTitle string `json:"law_title"`
	// DisplayTitle is the bracketed title, annotated with the statute
	// status when it is no longer in force, e.g. 《某条例》（已废止）.
	DisplayTitle string  `json:"display_title"`
	Category     string  `json:"category,omitempty"`
	Level        string  `json:"level,omitempty"`
	Status       string  `json:"status,omitempty"`
	Sequence     int     `json:"sequence"`
	Label        string  `json:"label"`
	ChapterPath  string  `json:"chapter_path,omitempty"`
	Content      string  `json:"content"`
	Highlight    string  `json:"highlight,omitempty"`
	Score        float32 `json:"score,omitempty"`
}

// RankTitle implements ranking.Rankable.
func (i Item) RankTitle() string { return i.LawTitle }

// RankLabel implements ranking.Rankable.
func (i Item) RankLabel() string { return i.Label }

// Result is the outcome of a top-K operation.
type Result struct {
	Query string `json:"query"`
	// Stage is the chain stage that produced the items, empty when none did.
	Stage string `json:"stage,omitempty"`
	Found bool   `json:"found"`
	Items []Item `json:"items"`
}

// Page is one page of a paginated operation.
type Page struct {
	Query      string `json:"query"`
	Stage      string `json:"stage,omitempty"`
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	// Truncated is set when more articles matched than were ranked.
	Truncated bool `json:"truncated,omitempty"`
}

// Resolution is the outcome of resolving a precise article reference.
type Resolution struct {
	Query     string             `json:"query"`
	Reference citation.Reference `json:"reference"`
	Found     bool               `json:"found"`
	// Items holds the matching article, plus its sub-articles when the
	// label pattern admitted them. Empty when Found is false.
	Items   []Item           `json:"items"`
	Statute *storage.Statute `json:"statute,omitempty"`
}

// Source identifies one article quoted in a knowledge context.
type Source struct {
	LawID    string `json:"law_id"`
	LawTitle string `json:"law_title"`
	Label    string `json:"label"`
}

// KnowledgeContext is the retrieval bundle handed to an answer generator.
type KnowledgeContext struct {
	Query string `json:"query"`
	Items []Item `json:"items"`
	// Context is the numbered block list "[i] 《title》label：content".
	Context string   `json:"context"`
	Sources []Source `json:"sources"`
	// DirectAnswer quotes the article verbatim when the query cited it precisely.
	DirectAnswer string `json:"direct_answer,omitempty"`
}
