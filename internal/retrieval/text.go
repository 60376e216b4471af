package retrieval

import (
	"strings"

	"statute-search/internal/storage"
)

const (
	highlightContext  = 50
	highlightFallback = 100
	ellipsis          = "..."
)

// displayTitle brackets a title and appends the status of statutes no
// longer in force.
func displayTitle(title, status string) string {
	s := "《" + title + "》"
	if status != "" && status != storage.DefaultStatus {
		s += "（" + status + "）"
	}
	return s
}

// highlight returns the first occurrence of query in content with up to
// highlightContext runes on either side, or the opening of content when
// query does not occur literally.
func highlight(content, query string) string {
	runes := []rune(content)
	q := []rune(query)
	idx := -1
	if len(q) > 0 {
		idx = runeIndexFold(runes, q)
	}
	if idx < 0 {
		return truncate(content, highlightFallback)
	}

	start := max(0, idx-highlightContext)
	end := min(len(runes), idx+len(q)+highlightContext)
	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

func runeIndexFold(haystack, needle []rune) int {
	h := []rune(strings.ToLower(string(haystack)))
	n := []rune(strings.ToLower(string(needle)))
	if len(h) != len(haystack) {
		// Case folding changed rune counts; fall back to an exact search.
		h, n = haystack, needle
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if h[i+j] != n[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
// n <= 0 disables truncation.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRight(string(runes[:n]), " \t\n") + ellipsis
}

// bigramHits counts how many of grams occur in content.
func bigramHits(content string, grams []string) int {
	lower := strings.ToLower(content)
	hits := 0
	for _, g := range grams {
		if strings.Contains(lower, g) {
			hits++
		}
	}
	return hits
}

func itemFromHit(h storage.ArticleHit) Item {
	return Item{
		ArticleID:    h.ID,
		LawID:        h.LawID,
		LawTitle:     h.Statute.Title,
		DisplayTitle: displayTitle(h.Statute.Title, h.Statute.Status),
		Category:     h.Statute.Category,
		Level:        h.Statute.Level,
		Status:       h.Statute.Status,
		Sequence:     h.Sequence,
		Label:        h.Label,
		ChapterPath:  h.ChapterPath,
		Content:      h.Content,
	}
}

func itemFromArticle(a storage.Article, s storage.Statute) Item {
	return itemFromHit(storage.ArticleHit{Article: a, Statute: s})
}

func itemsFromHits(hits []storage.ArticleHit) []Item {
	items := make([]Item, len(hits))
	for i, h := range hits {
		items[i] = itemFromHit(h)
	}
	return items
}
