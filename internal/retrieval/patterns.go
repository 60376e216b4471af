package retrieval

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"

	"statute-search/internal/alias"
	"statute-search/internal/numeral"
)

// Patterns built here run inside SQLite through the regexp2-backed REGEXP
// function, so they may use lookahead.

// conjunctiveRuneLimit is the longest keyword matched rune by rune; longer
// keywords are matched by overlapping two-rune shingles.
const conjunctiveRuneLimit = 4

// trailingNoise are phrases stripped from the end of a keyword that found
// nothing, e.g. 醉酒驾驶处罚 → 醉酒驾驶.
var trailingNoise = []string{"处罚", "规定", "如何", "怎么"}

// literalPattern matches s anywhere, ignoring case.
func literalPattern(s string) string {
	return "(?i)" + regexp2.Escape(s)
}

// labelPattern matches the display label of one article. The lookahead
// keeps 第十八条 from matching 第十八条之一 and 第二十条之一 from matching
// 第二十条之十一 or 第二十条之10.
func labelPattern(article, sub int) string {
	var b strings.Builder
	b.WriteString("^第")
	b.WriteString(numberAlternation(article))
	b.WriteString("条")
	if sub > 0 {
		b.WriteString("之")
		b.WriteString(numberAlternation(sub))
		b.WriteString("(?![零〇一二三四五六七八九十0-9])")
	} else {
		b.WriteString("(?![之零〇一二三四五六七八九十百千0-9])")
	}
	return b.String()
}

// numberAlternation lists the spellings a number may have in a label:
// short and full Chinese forms plus Arabic digits.
func numberAlternation(n int) string {
	forms := []string{numeral.FromInt(n, false)}
	if full := numeral.FromInt(n, true); full != forms[0] {
		forms = append(forms, full)
	}
	if digits := strconv.Itoa(n); digits != forms[0] {
		forms = append(forms, digits)
	}
	return "(?:" + strings.Join(forms, "|") + ")"
}

// titlePatterns returns the title patterns tried in order for a statute
// name: a literal substring, then a conjunctive pattern that tolerates
// reordering and interleaved words.
func titlePatterns(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	patterns := []string{literalPattern(name)}

	runes := []rune(alias.Normalize(name))
	if len(runes) == 0 {
		return patterns
	}
	var parts []string
	if len(runes) <= conjunctiveRuneLimit {
		for _, r := range runes {
			parts = append(parts, string(r))
		}
	} else {
		parts = shingles(runes)
	}
	var b strings.Builder
	b.WriteString("(?i)^")
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if seen[p] {
			continue
		}
		seen[p] = true
		b.WriteString("(?=.*")
		b.WriteString(regexp2.Escape(p))
		b.WriteString(")")
	}
	if conj := b.String(); conj != patterns[0] {
		patterns = append(patterns, conj)
	}
	return patterns
}

func shingles(runes []rune) []string {
	if len(runes) < 2 {
		return []string{string(runes)}
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}

// bigrams returns the distinct two-rune shingles of the letters and
// digits in s, in first-seen order.
func bigrams(s string) []string {
	var runes []rune
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes = append(runes, r)
		}
	}
	if len(runes) < 2 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, g := range shingles(runes) {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// anyOfPattern matches any of parts, ignoring case.
func anyOfPattern(parts []string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = regexp2.Escape(p)
	}
	return "(?i)(?:" + strings.Join(escaped, "|") + ")"
}

// stripTrailingNoise removes trailing noise phrases until none is left.
func stripTrailingNoise(s string) string {
	s = strings.TrimSpace(s)
	for changed := true; changed; {
		changed = false
		for _, suffix := range trailingNoise {
			if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
				s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
				changed = true
			}
		}
	}
	return s
}
