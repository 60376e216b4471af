// Package alias maps informal statute names (刑诉法, 道交法) to canonical titles.
package alias

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"statute-search/internal/contextutil"
	"statute-search/internal/resource"
)

// issuerPrefixes are stripped from the front of names before lookup.
// Longer prefixes come first so 全国人民代表大会常务委员会 wins over 全国人民代表大会.
var issuerPrefixes = []string{
	"中华人民共和国",
	"全国人民代表大会常务委员会",
	"全国人民代表大会",
	"最高人民法院",
	"最高人民检察院",
	"国务院",
	"公安部",
}

// Normalize keeps CJK characters, letters and digits, then strips issuing
// body prefixes. The result is the lookup key for the alias table.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.Is(unicode.Han, r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	for trimmed := true; trimmed; {
		trimmed = false
		for _, p := range issuerPrefixes {
			if strings.HasPrefix(s, p) && len(s) > len(p) {
				s = strings.TrimPrefix(s, p)
				trimmed = true
			}
		}
	}
	return s
}

// Resolver resolves names against an alias table loaded on first use.
type Resolver struct {
	src   resource.Source
	once  sync.Once
	table map[string]string
}

// NewResolver creates a Resolver reading its table from src.
func NewResolver(src resource.Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the canonical title for name, or the normalized name when
// the table has no entry. It never fails.
func (r *Resolver) Resolve(ctx context.Context, name string) string {
	if canonical, ok := r.Lookup(ctx, name); ok {
		return canonical
	}
	return Normalize(name)
}

// Lookup returns the canonical title for name and whether the table knew it.
func (r *Resolver) Lookup(ctx context.Context, name string) (string, bool) {
	r.load(ctx)
	canonical, ok := r.table[Normalize(name)]
	return canonical, ok
}

// Len returns the number of keys in the loaded table.
func (r *Resolver) Len(ctx context.Context) int {
	r.load(ctx)
	return len(r.table)
}

func (r *Resolver) load(ctx context.Context) {
	r.once.Do(func() {
		logger := contextutil.LoggerFromContext(ctx)
		ctx, cancel := resource.LoadContext(ctx)
		defer cancel()
		table, err := loadTable(ctx, r.src)
		if err != nil {
			logger.WarnContext(ctx, "alias table unavailable, falling back to fuzzy matching", "source", sourceName(r.src), "error", err)
			r.table = map[string]string{}
			return
		}
		r.table = table
		logger.DebugContext(ctx, "alias table loaded", "source", sourceName(r.src), "entries", len(table))
	})
}

func loadTable(ctx context.Context, src resource.Source) (map[string]string, error) {
	if src == nil {
		return nil, fmt.Errorf("no alias source configured")
	}
	data, err := resource.ReadAll(ctx, src)
	if err != nil {
		return nil, err
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}

	table := make(map[string]string, len(raw)*3)
	for canonical, aliases := range raw {
		canonical = strings.TrimSpace(canonical)
		if canonical == "" {
			continue
		}
		table[Normalize(canonical)] = canonical
		for _, a := range aliases {
			if key := Normalize(a); key != "" {
				table[key] = canonical
			}
		}
	}
	return table, nil
}

func sourceName(src resource.Source) string {
	if src == nil {
		return "none"
	}
	return src.Name()
}
