// Package ranking orders retrieval results by the authority of their source
// statute and collapses superseded revisions of the same article.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"statute-search/internal/contextutil"
	"statute-search/internal/resource"
)

// DefaultBaseline is the weight of titles when no table could be loaded.
const DefaultBaseline = 10

// Weights is the authority weight table.
type Weights struct {
	Baseline      int            `yaml:"baseline"`
	MarkerPenalty int            `yaml:"marker_penalty"`
	Markers       []string       `yaml:"markers"`
	Entries       map[string]int `yaml:"weights"`

	keys []string
}

// Uniform returns a table that weighs every title the same.
func Uniform() *Weights {
	return &Weights{Baseline: DefaultBaseline}
}

// ParseWeights decodes a YAML weight table.
func ParseWeights(data []byte) (*Weights, error) {
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse weight table: %w", err)
	}
	if w.Baseline <= 0 {
		w.Baseline = DefaultBaseline
	}
	w.index()
	return &w, nil
}

func (w *Weights) index() {
	w.keys = w.keys[:0]
	for k := range w.Entries {
		if strings.TrimSpace(k) != "" {
			w.keys = append(w.keys, k)
		}
	}
	// Longest key first; ties broken lexically for a stable result.
	sort.Slice(w.keys, func(i, j int) bool {
		li, lj := len([]rune(w.keys[i])), len([]rune(w.keys[j]))
		if li != lj {
			return li > lj
		}
		return w.keys[i] < w.keys[j]
	})
}

// Weight returns the authority weight of a statute title. The longest table
// key contained in the title decides the weight; titles carrying a
// supplementary-instrument marker lose MarkerPenalty, never dropping below 1.
func (w *Weights) Weight(title string) int {
	if w == nil {
		return DefaultBaseline
	}
	base := BaseTitle(title)

	weight := w.Baseline
	for _, k := range w.keys {
		if strings.Contains(base, k) {
			weight = w.Entries[k]
			break
		}
	}
	for _, m := range w.Markers {
		if m != "" && strings.Contains(base, m) {
			weight -= w.MarkerPenalty
			break
		}
	}
	if weight < 1 {
		weight = 1
	}
	return weight
}

// Table lazily loads a Weights table from a resource.Source exactly once.
type Table struct {
	src     resource.Source
	once    sync.Once
	weights *Weights
}

// NewTable creates a Table reading from src.
func NewTable(src resource.Source) *Table {
	return &Table{src: src}
}

// Weights returns the loaded table, or a uniform one if loading failed.
func (t *Table) Weights(ctx context.Context) *Weights {
	t.once.Do(func() {
		logger := contextutil.LoggerFromContext(ctx)
		ctx, cancel := resource.LoadContext(ctx)
		defer cancel()
		w, err := t.load(ctx)
		if err != nil {
			logger.WarnContext(ctx, "authority weight table unavailable, using uniform weights", "error", err)
			t.weights = Uniform()
			return
		}
		logger.DebugContext(ctx, "authority weight table loaded", "source", t.src.Name(), "entries", len(w.Entries))
		t.weights = w
	})
	return t.weights
}

func (t *Table) load(ctx context.Context) (*Weights, error) {
	if t.src == nil {
		return nil, fmt.Errorf("no weight source configured")
	}
	data, err := resource.ReadAll(ctx, t.src)
	if err != nil {
		return nil, err
	}
	return ParseWeights(data)
}
