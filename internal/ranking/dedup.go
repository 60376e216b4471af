package ranking

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// revisionSuffix matches a trailing parenthetical carrying a four-digit
// year, e.g. （2023年修正）, (1997), （2020修订）.
var revisionSuffix = regexp.MustCompile(`\s*[（(]([^（()）]*?)((?:19|20)\d{2})([^（()）]*)[）)]\s*$`)

// BaseTitle strips a trailing revision-year annotation from a title.
func BaseTitle(title string) string {
	return strings.TrimSpace(revisionSuffix.ReplaceAllString(title, ""))
}

// RevisionYear extracts the year from a trailing revision annotation.
// Titles without one are treated as year 0.
func RevisionYear(title string) int {
	m := revisionSuffix.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	return year
}

// Rankable is implemented by result items that can be deduplicated and ranked.
type Rankable interface {
	// RankTitle is the full statute title including any revision annotation.
	RankTitle() string
	// RankLabel is the article display label.
	RankLabel() string
}

// Dedup keeps, for each (base title, display label) pair, only the item
// from the most recent revision. The survivor takes the position of the
// first item of its group, so the incoming order is otherwise preserved.
func Dedup[T Rankable](items []T) []T {
	type group struct {
		pos  int
		year int
	}
	groups := make(map[string]*group, len(items))
	out := make([]T, 0, len(items))

	for _, item := range items {
		key := BaseTitle(item.RankTitle()) + "\x00" + item.RankLabel()
		year := RevisionYear(item.RankTitle())
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{pos: len(out), year: year}
			out = append(out, item)
			continue
		}
		if year > g.year {
			out[g.pos] = item
			g.year = year
		}
	}
	return out
}

// Sort orders items by descending authority weight. Items of equal weight
// keep their incoming order, which callers set to display order or match rank.
func Sort[T Rankable](items []T, w *Weights) {
	weights := make(map[string]int)
	weightOf := func(title string) int {
		if v, ok := weights[title]; ok {
			return v
		}
		v := w.Weight(title)
		weights[title] = v
		return v
	}
	sort.SliceStable(items, func(i, j int) bool {
		return weightOf(items[i].RankTitle()) > weightOf(items[j].RankTitle())
	})
}

// Apply deduplicates revisions and then sorts by authority.
func Apply[T Rankable](items []T, w *Weights) []T {
	out := Dedup(items)
	Sort(out, w)
	return out
}

// LatestRevisions filters titles down to the highest revision per base
// title. The returned indexes refer to the input slice, in input order.
func LatestRevisions(titles []string) []int {
	best := make(map[string]int, len(titles))
	for i, t := range titles {
		base := BaseTitle(t)
		j, ok := best[base]
		if !ok || RevisionYear(t) > RevisionYear(titles[j]) {
			best[base] = i
		}
	}
	out := make([]int, 0, len(best))
	for i, t := range titles {
		if best[BaseTitle(t)] == i {
			out = append(out, i)
		}
	}
	return out
}
