package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"statute-search/internal/citation"
)

const defaultKnowledgeTopK = 6

// Retrieve implements Engine. A precise citation that resolves becomes the
// direct answer and leads the items; semantic and keyword matches fill the
// rest, deduplicated by statute and label.
func (e *engine) Retrieve(ctx context.Context, text string, topK int) (*KnowledgeContext, error) {
	defer e.metrics.Observe(OpRetrieve, time.Now())
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "query", Message: "query is required"}
	}
	if topK < 0 {
		return nil, &ValidationError{Field: "top_k", Message: "top_k must not be negative"}
	}
	if topK == 0 {
		topK = defaultKnowledgeTopK
	}
	topK = min(topK, maxTopK)

	ref := citation.Parse(text)
	kc := &KnowledgeContext{Query: text, Items: []Item{}, Sources: []Source{}}

	var direct []Item
	if ref.HasArticle() && ref.LawName != "" {
		q := &Query{Operation: OpRetrieve, Text: text, Ref: ref, Law: ref.LawName}
		out, err := e.chain(exactArticle{e}).run(ctx, q)
		if err != nil {
			return nil, err
		}
		direct = out.Items
	}

	var semantic, keyword []Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := &Query{Operation: OpRetrieve, Text: text, Ref: ref, Keyword: ref.Cleaned, TopK: topK}
		out, err := e.chain(vectorSemantic{e}).run(gctx, q)
		semantic = out.Items
		return err
	})
	g.Go(func() error {
		q := &Query{Operation: OpRetrieve, Text: text, Ref: ref, Keyword: ref.Cleaned, Limit: topK}
		out, err := e.chain(keywordRegex{e}).run(gctx, q)
		keyword = out.Items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kc.Items = e.finalize(mergeItems(topK, direct, semantic, keyword), "")
	kc.Context, kc.Sources = buildContext(kc.Items, e.opts.ContextChars, e.opts.MaxContentChars)
	if len(direct) > 0 {
		kc.DirectAnswer = contextBlock(direct[0], strings.TrimSpace(direct[0].Content))
	}
	return kc, nil
}

// mergeItems concatenates result lists in priority order, dropping repeats
// of the same statute and label, and keeps the first limit items.
func mergeItems(limit int, lists ...[]Item) []Item {
	seen := make(map[string]bool)
	var out []Item
	for _, list := range lists {
		for _, item := range list {
			key := item.LawID + "\x00" + item.Label
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// buildContext renders items as numbered blocks until the next block would
// exceed maxChars runes. Each block's content is capped at maxItemChars.
func buildContext(items []Item, maxChars, maxItemChars int) (string, []Source) {
	var blocks []string
	sources := []Source{}
	total := 0
	for _, item := range items {
		content := strings.ReplaceAll(strings.TrimSpace(item.Content), "\n", " ")
		block := contextBlock(item, truncate(content, maxItemChars))
		n := len([]rune(block))
		if total+n > maxChars {
			break
		}
		total += n
		blocks = append(blocks, fmt.Sprintf("[%d] %s", len(blocks)+1, block))
		sources = append(sources, Source{LawID: item.LawID, LawTitle: item.LawTitle, Label: item.Label})
	}
	return strings.Join(blocks, "\n"), sources
}

func contextBlock(item Item, content string) string {
	return "《" + item.LawTitle + "》" + item.Label + "：" + content
}
