// Package numeral converts between Chinese ordinal numerals and integers
// as they appear in statute article labels (第八十三条, 第一百零三条之二).
package numeral

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var digitValues = map[rune]int{
	'零': 0, '〇': 0,
	'一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var unitValues = map[rune]int{
	'十': 10,
	'百': 100,
	'千': 1000,
}

var digitRunes = []string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// ErrInvalid is returned when a string contains characters that are not Chinese numerals.
var ErrInvalid = errors.New("invalid chinese numeral")

// ToInt parses a Chinese numeral such as "十八", "一百零三" or "二千零一十".
// Arabic digit strings are accepted as well.
func ToInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalid
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	runes := []rune(s)
	result := 0
	unit := 1
	// pending is true when a unit has been seen with no digit attached yet.
	pending := false

	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if u, ok := unitValues[r]; ok {
			if pending {
				result += unit
			}
			unit = u
			pending = true
			continue
		}
		d, ok := digitValues[r]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		result += d * unit
		pending = false
	}
	// A leading unit ("十三") counts as one of that unit.
	if pending {
		result += unit
	}

	return result, nil
}

// FromInt renders n as a Chinese numeral.
//
// fullForm controls the teens: FromInt(13, false) is "十三" while
// FromInt(13, true) is "一十三". Compound numbers always use the full form
// for the trailing part, so 110 renders as "一百一十" and 103 as "一百零三".
// Values of zero or less render as "零"; values above 9999 are returned as
// decimal digits.
func FromInt(n int, fullForm bool) string {
	switch {
	case n <= 0:
		return "零"
	case n < 10:
		return digitRunes[n]
	case n < 100:
		tens, ones := n/10, n%10
		var b strings.Builder
		if tens > 1 || fullForm {
			b.WriteString(digitRunes[tens])
		}
		b.WriteString("十")
		if ones > 0 {
			b.WriteString(digitRunes[ones])
		}
		return b.String()
	case n < 1000:
		return compound(n, 100, "百")
	case n < 10000:
		return compound(n, 1000, "千")
	default:
		return strconv.Itoa(n)
	}
}

func compound(n, base int, unit string) string {
	head, rest := n/base, n%base
	s := digitRunes[head] + unit
	switch {
	case rest == 0:
		return s
	case rest >= base/10:
		return s + FromInt(rest, true)
	default:
		return s + "零" + FromInt(rest, true)
	}
}

// Label builds the canonical display label for an article number and an
// optional sub-article index, e.g. Label(20, 2) == "第二十条之二".
// A sub index of zero or less yields the plain article label.
func Label(article, sub int) string {
	label := "第" + FromInt(article, false) + "条"
	if sub > 0 {
		label += "之" + FromInt(sub, false)
	}
	return label
}
