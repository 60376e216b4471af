// Package citation extracts statute references (law name, article number,
// sub-article suffix) from free-form query text.
package citation

import (
	"regexp"
	"strconv"
	"strings"

	"statute-search/internal/numeral"
)

// Reference is the parsed form of a query.
type Reference struct {
	// Article is the article number, zero when none was found.
	Article int `json:"article,omitempty"`
	// Sub is the sub-article index (之二 → 2), zero when absent.
	Sub int `json:"sub,omitempty"`
	// SubIndex is the textual suffix as written in labels, e.g. "之二".
	SubIndex string `json:"sub_index,omitempty"`
	// LawName is the law-name fragment left after removing the article
	// pattern and question boilerplate. It may be empty.
	LawName string `json:"law_name,omitempty"`
	// Keyword is a content keyword narrowing an identified law, e.g. the
	// "醉酒" in "治安管理处罚法 醉酒". Empty when the query has no such part.
	Keyword string `json:"keyword,omitempty"`
	// Cleaned is the whole query with boilerplate removed; it is the
	// fallback keyword when nothing more specific was recognised.
	Cleaned string `json:"cleaned"`
}

// HasArticle reports whether an article number was recognised.
func (r Reference) HasArticle() bool {
	return r.Article > 0
}

// Label returns the canonical display label of the referenced article,
// or "" when the reference carries no article number.
func (r Reference) Label() string {
	if !r.HasArticle() {
		return ""
	}
	return numeral.Label(r.Article, r.Sub)
}

const (
	cnDigits    = `零〇一二两三四五六七八九十百千`
	cnSubDigits = `零〇一二三四五六七八九十`
)

var (
	chineseArticle = regexp.MustCompile(`第\s*([` + cnDigits + `]+)\s*条(?:\s*之\s*([` + cnSubDigits + `]+|\d+))?`)
	arabicArticle  = regexp.MustCompile(`第?\s*(\d+)\s*条(?:\s*之\s*([` + cnSubDigits + `]+|\d+))?`)
	bareNumber     = regexp.MustCompile(`^\s*(\d+)\s*$`)

	questionPrefix = regexp.MustCompile(`^(?:请问一下|请问|问一下|问下|咨询一下|咨询|请教一下|请教)`)
	questionSuffix = regexp.MustCompile(`(?:是什么内容|具体内容|主要内容|规定内容|的内容|是什么|是啥|内容|规定|条文|含义|指什么|什么意思|指啥|说的是|讲的是|的)$`)
	trailingPunct  = regexp.MustCompile(`[\s?？。，,；;：:…!！、]+$`)
	leadingPunct   = regexp.MustCompile(`^[\s?？。，,；;：:…!！、]+`)
	brackets       = regexp.MustCompile(`[《》<>〈〉（）()\[\]【】「」"“”]`)

	quotedTitle = regexp.MustCompile(`《([^》]+)》`)
	titleThenKw = regexp.MustCompile(`^(\S+?(?:法|条例|规定|办法|细则|解释|决定|规则))[\s，,：:]+(.+)$`)
)

// Parse extracts a Reference from text. It never fails: text without a
// recognisable article pattern is returned with Cleaned set to the
// normalised input so callers can fall back to keyword search.
func Parse(text string) Reference {
	text = strings.TrimSpace(text)

	if m := bareNumber.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Reference{Article: n, Cleaned: text}
	}

	if ref, ok := parseArticle(text, chineseArticle); ok {
		return ref
	}
	if ref, ok := parseArticle(text, arabicArticle); ok {
		return ref
	}

	ref := Reference{Cleaned: stripBrackets(clean(text))}
	if m := quotedTitle.FindStringSubmatchIndex(text); m != nil {
		ref.LawName = clean(text[m[2]:m[3]])
		ref.Keyword = stripBrackets(clean(text[:m[0]] + " " + text[m[1]:]))
		return ref
	}
	if m := titleThenKw.FindStringSubmatch(ref.Cleaned); m != nil {
		ref.LawName = m[1]
		ref.Keyword = clean(m[2])
		return ref
	}
	ref.LawName = ref.Cleaned
	return ref
}

func parseArticle(text string, re *regexp.Regexp) (Reference, bool) {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return Reference{}, false
	}

	n, err := numeral.ToInt(text[loc[2]:loc[3]])
	if err != nil || n <= 0 {
		return Reference{}, false
	}
	ref := Reference{Article: n}

	if loc[4] >= 0 {
		sub, err := numeral.ToInt(text[loc[4]:loc[5]])
		if err == nil && sub > 0 {
			ref.Sub = sub
			ref.SubIndex = "之" + numeral.FromInt(sub, false)
		}
	}

	before := stripBrackets(clean(text[:loc[0]]))
	after := stripBrackets(clean(text[loc[1]:]))
	switch {
	case before != "":
		ref.LawName = before
		ref.Keyword = after
	default:
		ref.LawName = after
	}
	ref.Cleaned = strings.TrimSpace(before + " " + after)
	return ref, true
}

// clean strips question boilerplate and surrounding punctuation.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = leadingPunct.ReplaceAllString(s, "")
	s = questionPrefix.ReplaceAllString(s, "")
	for {
		prev := s
		s = trailingPunct.ReplaceAllString(s, "")
		s = questionSuffix.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
		if s == prev {
			break
		}
	}
	return s
}

func stripBrackets(s string) string {
	return strings.TrimSpace(brackets.ReplaceAllString(s, ""))
}
