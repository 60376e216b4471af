// Package probe caches the result of dependency health checks so that each
// request can ask "is the dependency up?" without paying for a round trip.
package probe

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"statute-search/internal/contextutil"
)

// CheckFunc performs one health check. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Prober runs a CheckFunc at most once per TTL. Concurrent callers share
// the in-flight check.
type Prober struct {
	name    string
	check   CheckFunc
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	checked time.Time
	healthy bool
	known   bool
}

// New creates a Prober. timeout bounds a single check.
func New(name string, check CheckFunc, ttl, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		name:    name,
		check:   check,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
	}
}

// Name returns the dependency name.
func (p *Prober) Name() string {
	return p.name
}

// Healthy reports whether the dependency passed its most recent check,
// running a new check when the cached one has expired.
func (p *Prober) Healthy(ctx context.Context) bool {
	if p == nil {
		return false
	}

	p.mu.Lock()
	if p.known && p.now().Sub(p.checked) < p.ttl {
		healthy := p.healthy
		p.mu.Unlock()
		return healthy
	}
	p.mu.Unlock()

	v, _, _ := p.group.Do(p.name, func() (any, error) {
		// The check outlives a cancelled caller so other waiters still get a result.
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		err := p.check(checkCtx)
		p.record(ctx, err)
		return err == nil, nil
	})
	return v.(bool)
}

func (p *Prober) record(ctx context.Context, err error) {
	healthy := err == nil

	p.mu.Lock()
	changed := !p.known || p.healthy != healthy
	p.healthy = healthy
	p.known = true
	p.checked = p.now()
	p.mu.Unlock()

	if !changed {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	if healthy {
		logger.InfoContext(ctx, "dependency healthy", "dependency", p.name)
	} else {
		logger.WarnContext(ctx, "dependency unavailable", "dependency", p.name, "error", err)
	}
}
