package retrieval

import (
	"context"
	"errors"
	"strings"

	"statute-search/internal/citation"
	"statute-search/internal/contextutil"
	"statute-search/internal/metrics"
	"statute-search/internal/ranking"
)

// Query is the per-request state shared by the strategies of one chain.
type Query struct {
	// Operation names the engine operation for logs and metrics.
	Operation string
	// Text is the raw query text.
	Text string
	Ref  citation.Reference
	// Law is the statute name or alias the query is about, if any.
	Law string
	// Keyword narrows the search within Law. For chains without a law it
	// is the text searched for.
	Keyword string
	// LawIDs confines every stage to these statutes when non-empty.
	LawIDs []string
	// ListWhenNoKeyword makes the title stage return a law's articles in
	// display order when no keyword narrows it.
	ListWhenNoKeyword bool
	// Accelerate allows the keyword stage to use the search engine.
	Accelerate bool
	// TopK bounds vector matches; Limit bounds literal candidates.
	TopK  int
	Limit int
}

// searchText is the text content stages search for.
func (q *Query) searchText() string {
	if s := strings.TrimSpace(q.Keyword); s != "" {
		return s
	}
	if s := strings.TrimSpace(q.Ref.Cleaned); s != "" {
		return s
	}
	return strings.TrimSpace(q.Text)
}

// Outcome is what one strategy produced.
type Outcome struct {
	Stage string
	Items []Item
	// Terminal stops the chain even when Items is empty.
	Terminal bool
	// Truncated reports that more rows matched than Limit allowed.
	Truncated bool
}

// Strategy is one stage of the retrieval fallback chain.
type Strategy interface {
	Name() string
	// Attempt returns an empty, non-terminal Outcome to pass the query on.
	// Errors wrapping ErrDependencyUnavailable also pass it on.
	Attempt(ctx context.Context, q *Query) (Outcome, error)
}

// chain evaluates strategies in order until one yields items or a
// terminal outcome.
type chain struct {
	strategies []Strategy
	weights    WeightProvider
	metrics    *metrics.Recorder
}

// run returns the first productive outcome. Every stage except the exact
// article lookup is deduplicated by revision and sorted by authority.
func (c chain) run(ctx context.Context, q *Query) (Outcome, error) {
	logger := contextutil.LoggerFromContext(ctx)

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		out, err := s.Attempt(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Outcome{}, ctxErr
			}
			if errors.Is(err, ErrDependencyUnavailable) {
				logger.WarnContext(ctx, "retrieval stage degraded", "operation", q.Operation, "stage", s.Name(), "error", err)
				c.metrics.Stage(q.Operation, s.Name(), metrics.OutcomeError)
				continue
			}
			c.metrics.Stage(q.Operation, s.Name(), metrics.OutcomeError)
			return Outcome{}, err
		}

		if len(out.Items) == 0 && !out.Terminal {
			c.metrics.Stage(q.Operation, s.Name(), metrics.OutcomeMiss)
			logger.DebugContext(ctx, "retrieval stage missed", "operation", q.Operation, "stage", s.Name())
			continue
		}

		out.Stage = s.Name()
		if len(out.Items) == 0 {
			c.metrics.Stage(q.Operation, s.Name(), metrics.OutcomeMiss)
		} else {
			c.metrics.Stage(q.Operation, s.Name(), metrics.OutcomeHit)
		}
		if s.Name() != StageExactArticle {
			out.Items = ranking.Apply(out.Items, c.weights.Weights(ctx))
		}
		logger.InfoContext(ctx, "retrieval stage selected",
			"operation", q.Operation,
			"stage", out.Stage,
			"items", len(out.Items),
			"terminal", out.Terminal,
		)
		return out, nil
	}
	return Outcome{}, nil
}
